package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

const (
	DefaultSensitivity = 1000.0
	DefaultInterval    = 2 * time.Millisecond
)

// Config describes both simulated channels and the emit cadence.
type Config struct {
	Interval time.Duration       `yaml:"interval"`
	Seed     int64               `yaml:"seed"`
	Left     ports.ChannelParams `yaml:"left"`
	Right    ports.ChannelParams `yaml:"right"`
}

func (c *Config) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Left.Sensitivity == 0 {
		c.Left.Sensitivity = DefaultSensitivity
	}
	if c.Right.Sensitivity == 0 {
		c.Right.Sensitivity = DefaultSensitivity
	}
}

func (c *Config) Validate() error {
	if c.Left.NoiseLevel < 0 || c.Right.NoiseLevel < 0 {
		return errors.New("noise_level must not be negative")
	}
	if c.Left.Damping < 0 || c.Right.Damping < 0 {
		return errors.New("damping must not be negative")
	}
	return nil
}

// Collector emits readings from two simulated channels at a fixed interval,
// standing in for the CAN transport.
type Collector struct {
	cfg   Config
	left  *Channel
	right *Channel

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewCollector(cfg Config) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Collector{
		cfg:   cfg,
		left:  NewChannel(cfg.Left, cfg.Seed),
		right: NewChannel(cfg.Right, cfg.Seed+1),
	}, nil
}

func (c *Collector) Left() ports.SimulatedChannel  { return c.left }
func (c *Collector) Right() ports.SimulatedChannel { return c.right }

// ResetPatterns restarts both channel patterns at now.
func (c *Collector) ResetPatterns(now time.Time) {
	c.left.ResetPattern(now)
	c.right.ResetPattern(now)
}

func (c *Collector) Start(emit ports.ReadingFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("simulator collector already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.started = true

	c.ResetPatterns(time.Now())
	c.wg.Add(1)
	go c.loop(ctx, emit)
	return nil
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	return nil
}

func (c *Collector) loop(ctx context.Context, emit ports.ReadingFunc) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			emit(domain.Reading{
				Left:      c.left.Weight(now),
				Right:     c.right.Weight(now),
				Timestamp: now,
			})
		}
	}
}

var _ ports.Collector = (*Collector)(nil)
