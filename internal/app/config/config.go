package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shubhamavl/axleweigh/internal/adapters/opcua"
	"github.com/shubhamavl/axleweigh/internal/adapters/simulator"
	"github.com/shubhamavl/axleweigh/internal/adapters/slcan"
	"github.com/shubhamavl/axleweigh/internal/app/balance"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

const (
	SourceSimulator = "simulator"
	SourceOPCUA     = "opcua"
	SourceSLCAN     = "slcan"
	SourceExternal  = "external"
)

type Config struct {
	Session    SessionConfig    `yaml:"session"`
	Policy     ports.Policy     `yaml:"policy"`
	Validation ports.Thresholds `yaml:"validation"`
	Source     SourceConfig     `yaml:"source"`
	OPCUA      opcua.Config     `yaml:"opcua"`
	SLCAN      slcan.Config     `yaml:"slcan"`
	Simulator  simulator.Config `yaml:"simulator"`
	Output     OutputConfig     `yaml:"output"`
	Timescale  TimescaleConfig  `yaml:"timescale"`
	HTTP       HTTPConfig       `yaml:"http"`
}

type SessionConfig struct {
	AxleNumber uint8 `yaml:"axle_number"`
}

type SourceConfig struct {
	Kind string `yaml:"kind"`
}

type OutputConfig struct {
	ReportDir  string `yaml:"report_dir"`
	JournalDir string `yaml:"journal_dir"`
}

// TimescaleConfig is optional; records go to JSON reports only when ConnString
// is empty.
type TimescaleConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes raw YAML. Thresholds are seeded before decoding so an explicit
// validation.min_valid_weight of 0 is kept.
func Parse(raw []byte) (*Config, error) {
	cfg := Config{Validation: balance.DefaultThresholds()}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a simulator-backed configuration.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Session.AxleNumber == 0 {
		c.Session.AxleNumber = 1
	}
	if c.Policy.TickInterval == 0 {
		c.Policy.TickInterval = 50 * time.Millisecond
	}
	if c.Policy.RateWindow == 0 {
		c.Policy.RateWindow = time.Second
	}
	if c.Policy.MaxSamples == 0 {
		c.Policy.MaxSamples = 21000
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = "drop_oldest"
	}
	if c.Policy.FoldMode == "" {
		c.Policy.FoldMode = ports.FoldPerSample
	}
	if c.Validation == (ports.Thresholds{}) {
		c.Validation = balance.DefaultThresholds()
	}
	if c.Validation.BalanceThreshold == 0 {
		c.Validation.BalanceThreshold = balance.DefaultBalanceThreshold
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceSimulator
	}
	if c.Output.ReportDir == "" {
		c.Output.ReportDir = "./data/reports"
	}
	if c.Output.JournalDir == "" {
		c.Output.JournalDir = "./data/journal"
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = "axle_test_records"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":9100"
	}

	switch c.Source.Kind {
	case SourceOPCUA:
		c.OPCUA.ApplyDefaults()
	case SourceSLCAN:
		c.SLCAN.ApplyDefaults()
	case SourceSimulator:
		c.Simulator.ApplyDefaults()
	}
}

func (c *Config) validate() error {
	if c.Policy.TickInterval < 0 || c.Policy.RateWindow < 0 {
		return fmt.Errorf("policy intervals must be positive")
	}
	if c.Policy.MaxSamples < 0 || c.Policy.MaxQueueLen < 0 {
		return fmt.Errorf("policy.max_samples and policy.max_queue_len must not be negative")
	}
	if c.Policy.OnQueueFull != "drop_oldest" {
		return fmt.Errorf("policy.on_queue_full %q is not supported", c.Policy.OnQueueFull)
	}
	switch c.Policy.FoldMode {
	case ports.FoldPerSample, ports.FoldLatest:
	default:
		return fmt.Errorf("policy.fold_mode %q is not supported", c.Policy.FoldMode)
	}
	if c.Validation.MinValidWeight < 0 {
		return fmt.Errorf("validation.min_valid_weight must not be negative")
	}
	if c.Validation.BalanceThreshold < 1 {
		return fmt.Errorf("validation.balance_threshold must be at least 1")
	}
	if c.Output.JournalDir == "" || c.Output.ReportDir == "" {
		return fmt.Errorf("output.report_dir and output.journal_dir are required")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}

	switch c.Source.Kind {
	case SourceOPCUA:
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	case SourceSLCAN:
		if err := c.SLCAN.Validate(); err != nil {
			return fmt.Errorf("slcan config: %w", err)
		}
	case SourceSimulator:
		if err := c.Simulator.Validate(); err != nil {
			return fmt.Errorf("simulator config: %w", err)
		}
	case SourceExternal:
	default:
		return fmt.Errorf("source.kind %q is not supported", c.Source.Kind)
	}
	return nil
}
