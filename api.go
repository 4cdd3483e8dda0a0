package axleweigh

import (
	base "github.com/shubhamavl/axleweigh/pkg/axleweigh"
)

// Re-exported errors for convenience.
var (
	ErrNoActiveSession   = base.ErrNoActiveSession
	ErrSchedulerClosed   = base.ErrSchedulerClosed
	ErrWorkerClosed      = base.ErrWorkerClosed
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
	ErrCollectorStopped  = base.ErrCollectorStopped
)

// Type aliases so consumers can import github.com/shubhamavl/axleweigh directly.
type (
	Config            = base.Config
	Policy            = base.Policy
	Thresholds        = base.Thresholds
	OPCUAConfig       = base.OPCUAConfig
	SLCANConfig       = base.SLCANConfig
	SimulatorConfig   = base.SimulatorConfig
	ChannelParams     = base.ChannelParams
	Pattern           = base.Pattern
	Flow              = base.Flow
	FlowOption        = base.FlowOption
	StreamInOption    = base.StreamInOption
	StreamOutOption   = base.StreamOutOption
	Runtime           = base.Runtime
	RuntimeOption     = base.RuntimeOption
	Reading           = base.Reading
	Sample            = base.Sample
	Snapshot          = base.Snapshot
	TestRecord        = base.TestRecord
	LifecycleState    = base.LifecycleState
	Status            = base.Status
	Collector         = base.Collector
	SampleQueue       = base.SampleQueue
	RecordSink        = base.RecordSink
	RecordJournal     = base.RecordJournal
	RecordFunc        = base.RecordFunc
	DisplaySink       = base.DisplaySink
	SimulatedChannel  = base.SimulatedChannel
	Observability     = base.Observability
	ExternalCollector = base.ExternalCollector
	ExportError       = base.ExportError
)

// Source kinds and waveform names.
const (
	SourceSimulator = base.SourceSimulator
	SourceOPCUA     = base.SourceOPCUA
	SourceSLCAN     = base.SourceSLCAN
	SourceExternal  = base.SourceExternal
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

func ParsePattern(s string) (Pattern, error) {
	return base.ParsePattern(s)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInCollector(col Collector) StreamInOption {
	return base.StreamInCollector(col)
}

func StreamInQueue(q SampleQueue) StreamInOption {
	return base.StreamInQueue(q)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutDisplay(fn DisplaySink) StreamOutOption {
	return base.StreamOutDisplay(fn)
}

func StreamOutRecordSink(s RecordSink) StreamOutOption {
	return base.StreamOutRecordSink(s)
}

func StreamOutJournal(j RecordJournal) StreamOutOption {
	return base.StreamOutJournal(j)
}

func StreamOutCallback(name string, fn RecordFunc) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithCollector(col Collector) RuntimeOption {
	return base.WithCollector(col)
}

func WithSampleQueue(q SampleQueue) RuntimeOption {
	return base.WithSampleQueue(q)
}

func WithJournal(j RecordJournal) RuntimeOption {
	return base.WithJournal(j)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithRecordSink(s RecordSink) RuntimeOption {
	return base.WithRecordSink(s)
}

func WithDisplay(fn DisplaySink) RuntimeOption {
	return base.WithDisplay(fn)
}

func WithoutHTTP() RuntimeOption {
	return base.WithoutHTTP()
}

// Sink adapters.
func NewCallbackSink(name string, fn RecordFunc) RecordSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (RecordSink, <-chan *TestRecord, func()) {
	return base.NewChannelSink(name, buffer)
}

func NewChannelDisplay(buffer int) (DisplaySink, <-chan Snapshot, func()) {
	return base.NewChannelDisplay(buffer)
}

// External readings.
func NewExternalCollector() *ExternalCollector {
	return base.NewExternalCollector()
}
