package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shubhamavl/axleweigh/internal/ports"
)

// ErrWorkerClosed is delivered for jobs submitted after the worker stopped.
var ErrWorkerClosed = errors.New("axleweigh: export worker closed")

type job struct {
	name   string
	fn     func(context.Context) error
	result chan error
}

// Worker runs blocking I/O (exports, record persistence) off the tick
// goroutine, one job at a time in submission order.
type Worker struct {
	jobs      chan job
	obs       ports.Observability
	quit      chan struct{}
	done      chan struct{}
	running   atomic.Bool
	closeOnce sync.Once
}

func NewWorker(buffer int, obs ports.Observability) *Worker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Worker{
		jobs: make(chan job, buffer),
		obs:  obs,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Submit queues fn and returns a channel that yields its result once.
func (w *Worker) Submit(name string, fn func(context.Context) error) <-chan error {
	j := job{name: name, fn: fn, result: make(chan error, 1)}
	select {
	case <-w.quit:
		j.result <- ErrWorkerClosed
		return j.result
	default:
	}
	select {
	case w.jobs <- j:
	case <-w.quit:
		j.result <- ErrWorkerClosed
	}
	return j.result
}

// Run executes jobs until ctx is cancelled or Close is called. Jobs already
// queued at that point are still executed with a context detached from ctx.
func (w *Worker) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return fmt.Errorf("worker already running")
	}
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx))
			return nil
		case <-w.quit:
			w.flush(context.WithoutCancel(ctx))
			return nil
		case j := <-w.jobs:
			w.execute(ctx, j)
		}
	}
}

func (w *Worker) flush(ctx context.Context) {
	for {
		select {
		case j := <-w.jobs:
			w.execute(ctx, j)
		default:
			return
		}
	}
}

func (w *Worker) execute(ctx context.Context, j job) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panic: %v", j.name, r)
			}
		}()
		err = j.fn(ctx)
	}()
	if err != nil {
		w.obs.LogError("job_failed", err, ports.Field{Key: "job", Value: j.name})
	}
	j.result <- err
}

func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.quit) })
	if w.running.Load() {
		<-w.done
	}
}
