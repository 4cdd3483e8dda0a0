package stats

import "time"

// RateCounter counts events inside a wall-clock window and publishes the rate
// each time the window elapses.
type RateCounter struct {
	window time.Duration
	since  time.Time
	count  uint64
	rate   float64
}

func NewRateCounter(window time.Duration) *RateCounter {
	if window <= 0 {
		window = time.Second
	}
	return &RateCounter{window: window}
}

func (r *RateCounter) Add(n int) {
	if n > 0 {
		r.count += uint64(n)
	}
}

// Tick recomputes the rate when the window has elapsed since the last check.
// It reports whether a new value was produced.
func (r *RateCounter) Tick(now time.Time) (float64, bool) {
	if r.since.IsZero() {
		r.since = now
		return r.rate, false
	}
	elapsed := now.Sub(r.since)
	if elapsed < r.window {
		return r.rate, false
	}
	r.rate = float64(r.count) / elapsed.Seconds()
	r.count = 0
	r.since = now
	return r.rate, true
}

func (r *RateCounter) Rate() float64 { return r.rate }

func (r *RateCounter) Reset() {
	r.since = time.Time{}
	r.count = 0
	r.rate = 0
}
