// Package stats accumulates per-session weight statistics.
package stats

import (
	"math"
	"time"
)

// Session is a point-in-time copy of the tracker.
type Session struct {
	Min         float64
	Max         float64
	HasData     bool
	SampleCount uint64
	StartTime   *time.Time
}

// Tracker keeps min/max of positive total weights and the session sample
// count. Non-positive and non-finite totals never touch min/max: an idle rig
// reads zero and must not pull the minimum down.
type Tracker struct {
	min     float64
	max     float64
	hasData bool
	count   uint64
	start   *time.Time
}

func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

func (t *Tracker) Observe(total float64) {
	if !(total > 0) || math.IsInf(total, 0) {
		return
	}
	if total < t.min {
		t.min = total
	}
	if total > t.max {
		t.max = total
	}
	t.hasData = true
}

func (t *Tracker) IncrementSampleCount() { t.count++ }

// Begin records when the session started.
func (t *Tracker) Begin(now time.Time) {
	t.start = &now
}

func (t *Tracker) Reset() {
	t.min = math.Inf(1)
	t.max = math.Inf(-1)
	t.hasData = false
	t.count = 0
	t.start = nil
}

func (t *Tracker) Snapshot() Session {
	s := Session{
		Min:         t.min,
		Max:         t.max,
		HasData:     t.hasData,
		SampleCount: t.count,
	}
	if t.start != nil {
		start := *t.start
		s.StartTime = &start
	}
	return s
}

// Bounds returns min/max, or zeros while no qualifying total has been seen.
func (s Session) Bounds() (lo, hi float64) {
	if !s.HasData {
		return 0, 0
	}
	return s.Min, s.Max
}
