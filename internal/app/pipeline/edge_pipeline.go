package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// Registration is the handle returned for an attached collector. Close
// detaches it exactly once.
type Registration struct {
	once sync.Once
	stop func() error
	err  error
}

func (r *Registration) Close() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		if r.stop != nil {
			r.err = r.stop()
		}
	})
	return r.err
}

// Producer returns the non-blocking callback transports invoke per event.
func Producer(q ports.SampleQueue, latest *LatestReading, obs ports.Observability) ports.ReadingFunc {
	return func(r domain.Reading) {
		if r.Timestamp.IsZero() {
			r.Timestamp = time.Now()
		}
		if latest != nil {
			latest.Store(r)
		}
		if dropped := q.Enqueue(r.Sample()); dropped > 0 {
			obs.IncCounter("axle_queue_dropped_total", float64(dropped))
		}
		obs.IncCounter("axle_samples_enqueued_total", 1)
	}
}

// RunEdgePipeline starts col and routes its readings into q.
func RunEdgePipeline(col ports.Collector, q ports.SampleQueue, latest *LatestReading, obs ports.Observability) (*Registration, error) {
	if col == nil {
		return nil, fmt.Errorf("collector is nil")
	}
	if err := col.Start(Producer(q, latest, obs)); err != nil {
		return nil, fmt.Errorf("start collector: %w", err)
	}
	obs.LogInfo("collector_started", ports.Field{Key: "collector", Value: fmt.Sprintf("%T", col)})
	return &Registration{stop: col.Stop}, nil
}
