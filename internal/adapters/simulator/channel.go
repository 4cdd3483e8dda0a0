package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shubhamavl/axleweigh/internal/ports"
)

// Channel is a synthetic load cell. Weight follows the configured pattern from
// the last pattern reset, plus Gaussian noise.
type Channel struct {
	mu     sync.Mutex
	params ports.ChannelParams
	origin time.Time
	rng    *rand.Rand
}

func NewChannel(p ports.ChannelParams, seed int64) *Channel {
	if p.Sensitivity == 0 {
		p.Sensitivity = DefaultSensitivity
	}
	return &Channel{
		params: p,
		origin: time.Now(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (c *Channel) Params() ports.ChannelParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetParams replaces the parameter set. The pattern clock keeps running.
func (c *Channel) SetParams(p ports.ChannelParams) {
	c.mu.Lock()
	c.params = p
	c.mu.Unlock()
}

func (c *Channel) ResetPattern(now time.Time) {
	c.mu.Lock()
	c.origin = now
	c.mu.Unlock()
}

func (c *Channel) Weight(now time.Time) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := patternWeight(c.params, now.Sub(c.origin))
	if c.params.NoiseLevel > 0 {
		w += c.rng.NormFloat64() * c.params.NoiseLevel
	}
	return w
}

// ADCValue is the raw count a real cell would report for the current weight.
func (c *Channel) ADCValue(now time.Time) int32 {
	w := c.Weight(now)
	c.mu.Lock()
	p := c.params
	c.mu.Unlock()
	return p.ZeroOffset + int32(math.Round(w*p.Sensitivity))
}

func patternWeight(p ports.ChannelParams, elapsed time.Duration) float64 {
	t := elapsed.Seconds()
	if t < 0 {
		t = 0
	}
	switch p.Pattern {
	case ports.PatternStep:
		if p.Frequency <= 0 {
			return p.Weight + p.Amplitude
		}
		// square wave starting low
		if math.Mod(t*p.Frequency, 1) >= 0.5 {
			return p.Weight + p.Amplitude
		}
		return p.Weight
	case ports.PatternRamp:
		if p.RampDuration <= 0 {
			return p.Weight + p.Amplitude
		}
		frac := t / p.RampDuration.Seconds()
		if frac > 1 {
			frac = 1
		}
		return p.Weight + p.Amplitude*frac
	case ports.PatternDampedSine:
		return p.Weight + p.Amplitude*math.Exp(-p.Damping*t)*math.Sin(2*math.Pi*p.Frequency*t)
	default:
		return p.Weight
	}
}

var _ ports.SimulatedChannel = (*Channel)(nil)
