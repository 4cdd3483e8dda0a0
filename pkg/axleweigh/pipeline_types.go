package axleweigh

import (
	"github.com/shubhamavl/axleweigh/internal/app/pipeline"
	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// Reading is one left/right weight pair produced by a transport.
type Reading = domain.Reading

// Sample is the queued form of a Reading.
type Sample = domain.Sample

// Snapshot is the per-tick display state.
type Snapshot = domain.Snapshot

// TestRecord is the finalized result of a test session.
type TestRecord = domain.TestRecord

// LifecycleState is the test session state.
type LifecycleState = domain.LifecycleState

const (
	StateIdle      = domain.StateIdle
	StateReading   = domain.StateReading
	StateStopped   = domain.StateStopped
	StateCompleted = domain.StateCompleted
)

// Validation and BalanceStatus are the verdicts carried by a TestRecord.
type (
	Validation    = domain.Validation
	BalanceStatus = domain.BalanceStatus
)

// Status reports the lifecycle state and which operations are legal.
type Status = pipeline.Status

// Collector streams readings from any transport into the pipeline.
type Collector = ports.Collector

// ReadingFunc is the non-blocking callback a Collector invokes per reading.
type ReadingFunc = ports.ReadingFunc

// SampleQueue is the multi-producer queue drained by the tick loop.
type SampleQueue = ports.SampleQueue

// RecordSink persists finalized test records.
type RecordSink = ports.RecordSink

// RecordJournal is the durable outbox saved records pass through.
type RecordJournal = ports.RecordJournal

// DisplaySink receives every published snapshot on the tick goroutine.
type DisplaySink = ports.DisplaySink

// SimulatedChannel is the parameter surface of a simulated load cell.
type SimulatedChannel = ports.SimulatedChannel

// Observability emits metrics/logs about throughput, latency and failures.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Subscription is a display registration handle.
type Subscription = pipeline.Subscription

// ExportError wraps report and CSV write failures.
type ExportError = domain.ExportError

var (
	ErrNoActiveSession = domain.ErrNoActiveSession
	ErrSchedulerClosed = domain.ErrSchedulerClosed
	ErrWorkerClosed    = pipeline.ErrWorkerClosed
)
