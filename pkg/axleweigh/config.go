package axleweigh

import (
	"github.com/shubhamavl/axleweigh/internal/adapters/opcua"
	"github.com/shubhamavl/axleweigh/internal/adapters/simulator"
	"github.com/shubhamavl/axleweigh/internal/adapters/slcan"
	"github.com/shubhamavl/axleweigh/internal/app/config"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls tick cadence, window size and queue bounds.
	Policy = ports.Policy
	// Thresholds drive channel validation and the balance check.
	Thresholds = ports.Thresholds
	// OPCUAConfig holds connection + left/right node details.
	OPCUAConfig = opcua.Config
	// SLCANConfig selects the serial CAN adapter and frame IDs.
	SLCANConfig = slcan.Config
	// SimulatorConfig describes both simulated load cells.
	SimulatorConfig = simulator.Config
	// ChannelParams is the parameter set of one simulated channel.
	ChannelParams = ports.ChannelParams
	// Pattern is a simulated channel waveform.
	Pattern = ports.Pattern
	// SessionConfig selects the initial axle number.
	SessionConfig = config.SessionConfig
	// SourceConfig selects the reading transport.
	SourceConfig = config.SourceConfig
	// OutputConfig holds the report and journal directories.
	OutputConfig = config.OutputConfig
	// TimescaleConfig configures the optional Postgres record sink.
	TimescaleConfig = config.TimescaleConfig
	// HTTPConfig configures the API/metrics server.
	HTTPConfig = config.HTTPConfig
)

const (
	SourceSimulator = config.SourceSimulator
	SourceOPCUA     = config.SourceOPCUA
	SourceSLCAN     = config.SourceSLCAN
	SourceExternal  = config.SourceExternal

	FoldPerSample = ports.FoldPerSample
	FoldLatest    = ports.FoldLatest

	PatternStatic     = ports.PatternStatic
	PatternStep       = ports.PatternStep
	PatternRamp       = ports.PatternRamp
	PatternDampedSine = ports.PatternDampedSine
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns a simulator-backed configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}

// ParsePattern converts a pattern name (static, step, ramp, damped_sine).
func ParsePattern(s string) (Pattern, error) {
	return ports.ParsePattern(s)
}
