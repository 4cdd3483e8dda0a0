package axleweigh

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("axleweigh: channel sink closed")

// RecordFunc is invoked with every finalized record.
type RecordFunc func(ctx context.Context, rec *TestRecord) error

// NewCallbackSink adapts a RecordFunc into a RecordSink so callers can plug
// arbitrary functions without defining structs.
func NewCallbackSink(name string, fn RecordFunc) RecordSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes saved records via a channel; it returns the sink, the
// read-only channel, and a close function that the caller should invoke during
// shutdown.
func NewChannelSink(name string, buffer int) (RecordSink, <-chan *TestRecord, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *TestRecord, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

// NewChannelDisplay exposes snapshots via a channel. Snapshots are dropped
// while the channel is full so a slow reader never stalls the tick.
func NewChannelDisplay(buffer int) (DisplaySink, <-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	d := &channelDisplay{ch: make(chan Snapshot, buffer)}
	return d.send, d.ch, d.close
}

type callbackSink struct {
	name string
	fn   RecordFunc
}

func (s *callbackSink) WriteRecord(ctx context.Context, rec *TestRecord) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if rec == nil {
		return nil
	}
	return s.fn(ctx, rec.Clone())
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan *TestRecord
	closed chan struct{}
	once   sync.Once
	mu     sync.RWMutex
}

func (s *channelSink) WriteRecord(ctx context.Context, rec *TestRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if rec == nil {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- rec.Clone():
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}

type channelDisplay struct {
	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
}

func (d *channelDisplay) send(snap Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.ch <- snap:
	default:
	}
}

func (d *channelDisplay) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
}
