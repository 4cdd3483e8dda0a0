package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shubhamavl/axleweigh/internal/ports"
)

// PromObs logs through the standard logger and records metrics in a
// Prometheus registry. Metric names not declared here are ignored.
type PromObs struct {
	logger   *log.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the rig metrics with reg, or with the default
// registerer when reg is nil.
func NewPromObs(reg prometheus.Registerer) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	counters := map[string]prometheus.Counter{
		"axle_samples_enqueued_total":     counter("axle_samples_enqueued_total", "Readings accepted from the transport."),
		"axle_samples_folded_total":       counter("axle_samples_folded_total", "Samples drained and folded into the display windows."),
		"axle_queue_dropped_total":        counter("axle_queue_dropped_total", "Samples discarded by queue bound, clear or shutdown."),
		"axle_tick_failures_total":        counter("axle_tick_failures_total", "Ticks that panicked and were recovered."),
		"axle_records_saved_total":        counter("axle_records_saved_total", "Test records handed to persistence."),
		"axle_record_sink_failures_total": counter("axle_record_sink_failures_total", "Record deliveries rejected by a sink."),
		"axle_records_parked_total":       counter("axle_records_parked_total", "Records moved to the dead-letter directory after repeated delivery failures."),
		"axle_exports_total":              counter("axle_exports_total", "CSV exports written."),
		"axle_export_failures_total":      counter("axle_export_failures_total", "CSV exports that failed."),
	}
	gauges := map[string]prometheus.Gauge{
		"axle_queue_length":       gauge("axle_queue_length", "Samples waiting in the ingest queue."),
		"axle_sample_rate_hz":     gauge("axle_sample_rate_hz", "Drained samples per second over the last rate window."),
		"axle_journal_size_bytes": gauge("axle_journal_size_bytes", "Size of the record journal on disk."),
	}
	tick := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "axle_tick_duration_seconds",
		Help:    "Time spent draining and folding per tick.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	})

	for _, c := range counters {
		reg.MustRegister(c)
	}
	for _, g := range gauges {
		reg.MustRegister(g)
	}
	reg.MustRegister(tick)

	return &PromObs{
		logger:   log.Default(),
		counters: counters,
		gauges:   gauges,
		histos: map[string]prometheus.Observer{
			"axle_tick_duration_seconds": tick,
		},
	}
}

// SetLogger redirects log output.
func (p *PromObs) SetLogger(l *log.Logger) {
	if l != nil {
		p.logger = l
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.logger.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
