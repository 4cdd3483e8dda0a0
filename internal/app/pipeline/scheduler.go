package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

const DefaultTickInterval = 50 * time.Millisecond

type command struct {
	fn   func(*Engine)
	done chan error
}

// Scheduler drives the Engine at a fixed cadence on a single goroutine.
// Commands from other goroutines are funnelled through Do so every mutation of
// engine state happens between ticks on that goroutine.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	obs      ports.Observability

	cmds      chan command
	quit      chan struct{}
	done      chan struct{}
	running   atomic.Bool
	closeOnce sync.Once

	subMu   sync.Mutex
	subs    map[uint64]ports.DisplaySink
	nextSub uint64

	latest  atomic.Pointer[domain.Snapshot]
	failLog rate.Sometimes
}

func NewScheduler(engine *Engine, interval time.Duration, obs ports.Observability) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		obs:      obs,
		cmds:     make(chan command),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		subs:     make(map[uint64]ports.DisplaySink),
		failLog:  rate.Sometimes{Interval: time.Second},
	}
}

// Run ticks until ctx is cancelled or Close is called. On exit the queue is
// drained and discarded.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	defer func() {
		if n := s.engine.DiscardQueue(); n > 0 {
			s.obs.LogInfo("queue_discarded_on_shutdown", ports.Field{Key: "samples", Value: n})
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.quit:
			return nil
		case now := <-ticker.C:
			s.TickOnce(now)
		case cmd := <-s.cmds:
			cmd.done <- s.exec(cmd.fn)
		}
	}
}

// Close stops the ticking goroutine and waits for it to exit.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	if s.running.Load() {
		<-s.done
	}
}

// TickOnce runs a single tick. A panicking tick is logged and counted; it
// never stops the scheduler.
func (s *Scheduler) TickOnce(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.obs.IncCounter("axle_tick_failures_total", 1)
			err := fmt.Errorf("tick panic: %v", r)
			s.failLog.Do(func() { s.obs.LogError("tick_failed", err) })
		}
	}()

	snap, ok := s.engine.Tick(now)
	if !ok {
		return
	}
	s.latest.Store(&snap)
	s.publish(snap)
}

func (s *Scheduler) exec(fn func(*Engine)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panic: %v", r)
			s.obs.LogError("command_failed", err)
		}
	}()
	fn(s.engine)
	return nil
}

// Do runs fn on the scheduler goroutine and waits for it to finish. ctx only
// bounds the hand-off; once the loop has accepted fn, Do waits for its result
// so callers never observe a command that is still running.
func (s *Scheduler) Do(ctx context.Context, fn func(*Engine)) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.quit:
		return domain.ErrSchedulerClosed
	case <-s.done:
		return domain.ErrSchedulerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-cmd.done
}

// Latest returns the most recently published snapshot.
func (s *Scheduler) Latest() (domain.Snapshot, bool) {
	p := s.latest.Load()
	if p == nil {
		return domain.Snapshot{}, false
	}
	return *p, true
}

// Subscription is a display registration; Close releases it.
type Subscription struct {
	id   uint64
	s    *Scheduler
	once sync.Once
}

func (sub *Subscription) Close() {
	if sub == nil {
		return
	}
	sub.once.Do(func() {
		sub.s.subMu.Lock()
		delete(sub.s.subs, sub.id)
		sub.s.subMu.Unlock()
	})
}

// Subscribe registers fn to receive every published snapshot.
func (s *Scheduler) Subscribe(fn ports.DisplaySink) *Subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	s.subs[s.nextSub] = fn
	return &Subscription{id: s.nextSub, s: s}
}

func (s *Scheduler) publish(snap domain.Snapshot) {
	s.subMu.Lock()
	sinks := make([]ports.DisplaySink, 0, len(s.subs))
	for _, fn := range s.subs {
		sinks = append(sinks, fn)
	}
	s.subMu.Unlock()

	for _, fn := range sinks {
		fn(snap)
	}
}
