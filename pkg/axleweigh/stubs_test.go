package axleweigh

import (
	"sync"
	"testing"
	"time"
)

type stubCollector struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (s *stubCollector) Start(ReadingFunc) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

func (s *stubCollector) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return nil
}

type stubObservability struct{}

func (stubObservability) LogInfo(string, ...Field)           {}
func (stubObservability) LogError(string, error, ...Field)    {}
func (stubObservability) LogCritical(string, error, ...Field) {}
func (stubObservability) IncCounter(string, float64)          {}
func (stubObservability) ObserveLatency(string, float64)      {}
func (stubObservability) SetGauge(string, float64)            {}

// testConfig is a runtime config writing into a temp dir with a fast tick.
func testConfig(t *testing.T, kind string) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Source.Kind = kind
	cfg.Policy.TickInterval = 5 * time.Millisecond
	cfg.Output.ReportDir = t.TempDir()
	cfg.Output.JournalDir = t.TempDir()
	cfg.HTTP.Addr = "127.0.0.1:0"
	return cfg
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
