package pipeline

import (
	"context"
	"time"

	"github.com/shubhamavl/axleweigh/internal/app/lifecycle"
	"github.com/shubhamavl/axleweigh/internal/domain"
)

// Start opens a test session. applied is false when the current state does
// not allow it.
func (s *Scheduler) Start(ctx context.Context) (applied bool, err error) {
	err = s.Do(ctx, func(e *Engine) { applied = e.Start(time.Now()) })
	return applied, err
}

func (s *Scheduler) Stop(ctx context.Context) (applied bool, err error) {
	err = s.Do(ctx, func(e *Engine) { applied = e.Stop() })
	return applied, err
}

// Save finalizes the session. rec is nil with a nil error when saving is not
// allowed in the current state.
func (s *Scheduler) Save(ctx context.Context) (rec *domain.TestRecord, err error) {
	if doErr := s.Do(ctx, func(e *Engine) { rec, err = e.Save(time.Now()) }); doErr != nil {
		return nil, doErr
	}
	return rec, err
}

func (s *Scheduler) Clear(ctx context.Context) (discarded int, err error) {
	err = s.Do(ctx, func(e *Engine) { discarded = e.Clear() })
	return discarded, err
}

func (s *Scheduler) Pause(ctx context.Context) error {
	return s.Do(ctx, func(e *Engine) { e.Pause() })
}

func (s *Scheduler) Resume(ctx context.Context) error {
	return s.Do(ctx, func(e *Engine) { e.Resume() })
}

func (s *Scheduler) SetAxle(ctx context.Context, n uint8) error {
	return s.Do(ctx, func(e *Engine) { e.SetAxle(n) })
}

// Buffers copies both display windows on the scheduler goroutine.
func (s *Scheduler) Buffers(ctx context.Context) (left, right []float64, err error) {
	err = s.Do(ctx, func(e *Engine) { left, right = e.Buffers() })
	return left, right, err
}

// Status reports the lifecycle state and which operations are currently legal.
type Status struct {
	State    domain.LifecycleState `json:"state"`
	Paused   bool                  `json:"paused"`
	CanStart bool                  `json:"canStart"`
	CanStop  bool                  `json:"canStop"`
	CanSave  bool                  `json:"canSave"`
}

func (s *Scheduler) Status(ctx context.Context) (st Status, err error) {
	err = s.Do(ctx, func(e *Engine) {
		st = Status{
			State:    e.State(),
			Paused:   e.Paused(),
			CanStart: e.Can(lifecycle.OpStart),
			CanStop:  e.Can(lifecycle.OpStop),
			CanSave:  e.Can(lifecycle.OpSave),
		}
	})
	return st, err
}
