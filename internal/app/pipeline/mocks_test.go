package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

type mockObs struct {
	mu       sync.Mutex
	errors   []error
	infos    []string
	counters map[string]float64
	gauges   map[string]float64
}

func newMockObs() *mockObs {
	return &mockObs{counters: map[string]float64{}, gauges: map[string]float64{}}
}

func (m *mockObs) LogInfo(msg string, _ ...ports.Field) {
	m.mu.Lock()
	m.infos = append(m.infos, msg)
	m.mu.Unlock()
}

func (m *mockObs) LogError(_ string, err error, _ ...ports.Field) {
	m.mu.Lock()
	m.errors = append(m.errors, err)
	m.mu.Unlock()
}

func (m *mockObs) LogCritical(_ string, err error, _ ...ports.Field) { m.LogError("", err) }

func (m *mockObs) IncCounter(name string, v float64) {
	m.mu.Lock()
	m.counters[name] += v
	m.mu.Unlock()
}

func (m *mockObs) ObserveLatency(string, float64) {}

func (m *mockObs) SetGauge(name string, v float64) {
	m.mu.Lock()
	m.gauges[name] = v
	m.mu.Unlock()
}

func (m *mockObs) counter(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

func (m *mockObs) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type mockJournal struct {
	mu        sync.Mutex
	entries   []*domain.TestRecord
	committed ports.JournalEntryID
	compacts  int
	appendErr error
}

func (m *mockJournal) Append(rec *domain.TestRecord) (ports.JournalEntryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	m.entries = append(m.entries, rec.Clone())
	return ports.JournalEntryID(len(m.entries)), nil
}

func (m *mockJournal) Iterate(from ports.JournalEntryID, fn func(ports.JournalEntryID, *domain.TestRecord) error) error {
	m.mu.Lock()
	entries := append([]*domain.TestRecord(nil), m.entries...)
	m.mu.Unlock()
	for i, rec := range entries {
		id := ports.JournalEntryID(i + 1)
		if id < from {
			continue
		}
		if err := fn(id, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockJournal) Commit(upto ports.JournalEntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if upto > m.committed {
		m.committed = upto
	}
	return nil
}

func (m *mockJournal) Stats() ports.JournalStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ports.JournalStats{
		OldestUncommitted: m.committed + 1,
		LatestAppended:    ports.JournalEntryID(len(m.entries)),
		SizeBytes:         int64(len(m.entries)-int(m.committed)) * 100,
	}
}

func (m *mockJournal) Compact() error {
	m.mu.Lock()
	m.compacts++
	m.mu.Unlock()
	return nil
}

func (m *mockJournal) Close() error { return nil }

type mockSink struct {
	name string

	mu       sync.Mutex
	records  []*domain.TestRecord
	failures int
}

var errSinkDown = errors.New("sink down")

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) WriteRecord(_ context.Context, rec *domain.TestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errSinkDown
	}
	m.records = append(m.records, rec.Clone())
	return nil
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type mockCollector struct {
	mu       sync.Mutex
	emit     ports.ReadingFunc
	startErr error
	stops    int
}

func (m *mockCollector) Start(emit ports.ReadingFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.emit = emit
	return nil
}

func (m *mockCollector) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockCollector) send(r domain.Reading) {
	m.mu.Lock()
	emit := m.emit
	m.mu.Unlock()
	emit(r)
}
