package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWorkerRunsJobsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorker(4, newMockObs())
	go func() { _ = w.Run(context.Background()) }()
	defer w.Close()

	var order []int
	first := w.Submit("first", func(context.Context) error { order = append(order, 1); return nil })
	second := w.Submit("second", func(context.Context) error { order = append(order, 2); return nil })

	if err := <-first; err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestWorkerReportsFailuresAndPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	obs := newMockObs()
	w := NewWorker(1, obs)
	go func() { _ = w.Run(context.Background()) }()
	defer w.Close()

	boom := errors.New("disk full")
	if err := <-w.Submit("export", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected job error, got %v", err)
	}
	if err := <-w.Submit("export", func(context.Context) error { panic("oops") }); err == nil {
		t.Fatalf("expected panic to surface as error")
	}
	if obs.errorCount() != 2 {
		t.Fatalf("expected both failures logged, got %d", obs.errorCount())
	}
}

func TestWorkerFlushesOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorker(4, newMockObs())
	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan string, 2)
	futures := []<-chan error{
		w.Submit("a", func(context.Context) error { ran <- "a"; return nil }),
		w.Submit("b", func(context.Context) error { ran <- "b"; return nil }),
	}
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, f := range futures {
		select {
		case err := <-f:
			if err != nil {
				t.Fatalf("job: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatalf("pending job was not flushed")
		}
	}
	if len(ran) != 2 {
		t.Fatalf("expected both jobs to run, got %d", len(ran))
	}
}

func TestWorkerRejectsAfterClose(t *testing.T) {
	w := NewWorker(1, newMockObs())
	w.Close()
	if err := <-w.Submit("late", func(context.Context) error { return nil }); !errors.Is(err, ErrWorkerClosed) {
		t.Fatalf("expected ErrWorkerClosed, got %v", err)
	}
}
