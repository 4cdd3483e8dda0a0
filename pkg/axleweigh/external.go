package axleweigh

import (
	"errors"
	"sync"
	"time"

	"github.com/shubhamavl/axleweigh/internal/ports"
)

// ErrCollectorStopped indicates Publish was called while no runtime is attached.
var ErrCollectorStopped = errors.New("axleweigh: external collector not running")

// ExternalCollector lets callers push readings from their own transport
// (a CAN driver, a replay file, a test harness). Publish never blocks.
type ExternalCollector struct {
	mu   sync.RWMutex
	emit ports.ReadingFunc
}

func NewExternalCollector() *ExternalCollector {
	return &ExternalCollector{}
}

func (c *ExternalCollector) Start(emit ports.ReadingFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emit != nil {
		return errors.New("external collector already started")
	}
	c.emit = emit
	return nil
}

func (c *ExternalCollector) Stop() error {
	c.mu.Lock()
	c.emit = nil
	c.mu.Unlock()
	return nil
}

// Publish hands one reading to the pipeline. A zero timestamp is stamped on
// arrival.
func (c *ExternalCollector) Publish(r Reading) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.emit == nil {
		return ErrCollectorStopped
	}
	c.emit(r)
	return nil
}

// PublishWeights is Publish for a left/right pair measured now.
func (c *ExternalCollector) PublishWeights(left, right float64) error {
	return c.Publish(Reading{Left: left, Right: right, Timestamp: time.Now()})
}

var _ ports.Collector = (*ExternalCollector)(nil)
