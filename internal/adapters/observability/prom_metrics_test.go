package observability

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shubhamavl/axleweigh/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(reg)

	obs.IncCounter("axle_samples_folded_total", 5)
	if got := testutil.ToFloat64(obs.counters["axle_samples_folded_total"]); got != 5 {
		t.Fatalf("expected folded counter 5, got %f", got)
	}

	obs.IncCounter("axle_queue_dropped_total", 2)
	if got := testutil.ToFloat64(obs.counters["axle_queue_dropped_total"]); got != 2 {
		t.Fatalf("expected queue drop counter 2, got %f", got)
	}

	obs.SetGauge("axle_sample_rate_hz", 200)
	if got := testutil.ToFloat64(obs.gauges["axle_sample_rate_hz"]); got != 200 {
		t.Fatalf("expected rate gauge 200, got %f", got)
	}

	obs.ObserveLatency("axle_tick_duration_seconds", 0.002)
	hCollector := obs.histos["axle_tick_duration_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected tick histogram to record 1 sample, got %d", samples)
	}

	obs.IncCounter("unknown_metric", 1)
	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Fatalf("gather: n=%d err=%v", n, err)
	}
}

func TestPromObsLogFields(t *testing.T) {
	obs := NewPromObs(prometheus.NewRegistry())
	var buf bytes.Buffer
	obs.SetLogger(log.New(&buf, "", 0))

	obs.LogError("export_failed", errors.New("disk full"), ports.Field{Key: "path", Value: "/tmp/a.csv"})
	line := buf.String()
	if !strings.Contains(line, "ERROR: export_failed: disk full") || !strings.Contains(line, "path=/tmp/a.csv") {
		t.Fatalf("unexpected log line: %q", line)
	}
}
