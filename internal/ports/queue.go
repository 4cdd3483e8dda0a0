package ports

import "github.com/shubhamavl/axleweigh/internal/domain"

// SampleQueue is the multi-producer, single-consumer boundary between the
// transport and the tick scheduler.
type SampleQueue interface {
	// Enqueue never blocks. It reports how many older samples were evicted
	// to make room (always 0 for an unbounded queue).
	Enqueue(s domain.Sample) (dropped int)
	// DrainBatch removes and returns everything queued, oldest first.
	DrainBatch() []domain.Sample
	Len() int
}
