package queue

import (
	"sync"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// MemQueue is an in-memory FIFO shared by any number of producers and a single
// draining consumer. With a zero capacity it is unbounded; otherwise the
// oldest samples are evicted once the capacity is reached.
type MemQueue struct {
	mu    sync.Mutex
	data  []domain.Sample
	spare []domain.Sample
	cap   int
}

func NewMemQueue(capacity int) *MemQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &MemQueue{cap: capacity}
}

func (q *MemQueue) Enqueue(s domain.Sample) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := 0
	if q.cap > 0 && len(q.data) >= q.cap {
		dropped = len(q.data) - q.cap + 1
		q.data = append(q.data[:0], q.data[dropped:]...)
	}
	q.data = append(q.data, s)
	return dropped
}

// DrainBatch swaps the backing slice out under the lock so producers are only
// held for the swap, never for the consumer's processing.
func (q *MemQueue) DrainBatch() []domain.Sample {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	out := q.data
	q.data = q.spare[:0]
	q.spare = nil
	return out
}

// Recycle hands a drained batch back for reuse once the consumer is done with it.
func (q *MemQueue) Recycle(batch []domain.Sample) {
	if cap(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.spare == nil {
		q.spare = batch[:0]
	}
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.SampleQueue = (*MemQueue)(nil)
