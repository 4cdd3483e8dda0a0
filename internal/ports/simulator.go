package ports

import (
	"fmt"
	"strings"
	"time"
)

// Pattern is the waveform a simulated channel follows.
type Pattern uint8

const (
	PatternStatic Pattern = iota
	PatternStep
	PatternRamp
	PatternDampedSine
)

func (p Pattern) String() string {
	switch p {
	case PatternStep:
		return "step"
	case PatternRamp:
		return "ramp"
	case PatternDampedSine:
		return "damped_sine"
	default:
		return "static"
	}
}

func (p Pattern) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pattern) UnmarshalText(b []byte) error {
	v, err := ParsePattern(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "static":
		return PatternStatic, nil
	case "step":
		return PatternStep, nil
	case "ramp":
		return PatternRamp, nil
	case "damped_sine", "dampedsine", "sine":
		return PatternDampedSine, nil
	default:
		return PatternStatic, fmt.Errorf("unknown pattern %q", s)
	}
}

// ChannelParams is the read/write parameter set of one simulated load cell.
type ChannelParams struct {
	Weight       float64       `yaml:"weight" json:"weight"`
	ZeroOffset   int32         `yaml:"zero_offset" json:"zeroOffset"`
	Sensitivity  float64       `yaml:"sensitivity" json:"sensitivity"` // ADC counts per kg
	NoiseLevel   float64       `yaml:"noise_level" json:"noiseLevel"`  // kg, standard deviation
	Pattern      Pattern       `yaml:"pattern" json:"pattern"`
	Amplitude    float64       `yaml:"amplitude" json:"amplitude"`
	Frequency    float64       `yaml:"frequency" json:"frequency"`
	Damping      float64       `yaml:"damping" json:"damping"`
	RampDuration time.Duration `yaml:"ramp_duration" json:"rampDuration"`
}

// SimulatedChannel replaces a physical load cell when no transport is wired.
type SimulatedChannel interface {
	Params() ChannelParams
	SetParams(p ChannelParams)
	Weight(now time.Time) float64
	ADCValue(now time.Time) int32
	ResetPattern(now time.Time)
}
