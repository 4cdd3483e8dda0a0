// Package lifecycle implements the Idle -> Reading -> Stopped -> Completed
// test session machine and owns the session's TestRecord.
//
// Operations invoked from a state that does not allow them are silent no-ops
// and report applied=false; the only surfaced failure is saving without a
// record.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/shubhamavl/axleweigh/internal/app/balance"
	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

type Op uint8

const (
	OpStart Op = iota
	OpStop
	OpSave
	OpClear
)

func (o Op) String() string {
	switch o {
	case OpStart:
		return "start"
	case OpStop:
		return "stop"
	case OpSave:
		return "save"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Final carries the readings and counters captured at save time.
type Final struct {
	EndTime     time.Time
	Left        float64
	Right       float64
	SampleCount uint64
	MinWeight   float64
	MaxWeight   float64
}

type Lifecycle struct {
	state      domain.LifecycleState
	record     *domain.TestRecord
	thresholds ports.Thresholds
	newID      func() uuid.UUID
}

func New(th ports.Thresholds) *Lifecycle {
	return &Lifecycle{thresholds: th, newID: uuid.New}
}

func (l *Lifecycle) State() domain.LifecycleState { return l.state }

// Record returns a copy of the current record, nil when none exists.
func (l *Lifecycle) Record() *domain.TestRecord { return l.record.Clone() }

// Can reports whether op would change anything in the current state.
func (l *Lifecycle) Can(op Op) bool {
	switch op {
	case OpStart:
		return l.state == domain.StateIdle || l.state == domain.StateCompleted
	case OpStop:
		return l.state == domain.StateReading
	case OpSave:
		switch l.state {
		case domain.StateStopped:
			return l.record != nil
		case domain.StateCompleted:
			return l.record.Finalized()
		}
		return false
	case OpClear:
		return true
	}
	return false
}

// Start opens a new session with a fresh record. The caller resets the
// session statistics when applied is true.
func (l *Lifecycle) Start(axle uint8, now time.Time) (applied bool) {
	if !l.Can(OpStart) {
		return false
	}
	l.record = &domain.TestRecord{
		ID:         l.newID(),
		AxleNumber: axle,
		StartTime:  now,
	}
	l.state = domain.StateReading
	return true
}

func (l *Lifecycle) Stop() (applied bool) {
	if !l.Can(OpStop) {
		return false
	}
	l.state = domain.StateStopped
	return true
}

// Save finalizes the record and moves to Completed. A record that is already
// finalized is returned unchanged. Saving while Reading is a no-op and
// returns (nil, nil).
func (l *Lifecycle) Save(f Final) (*domain.TestRecord, error) {
	if l.record == nil {
		return nil, domain.ErrNoActiveSession
	}
	if !l.Can(OpSave) {
		return nil, nil
	}
	if l.state == domain.StateCompleted {
		return l.record.Clone(), nil
	}

	res := balance.Evaluate(f.Left, f.Right, l.thresholds)
	end := f.EndTime
	l.record.EndTime = &end
	l.record.LeftWeight = f.Left
	l.record.RightWeight = f.Right
	l.record.SampleCount = f.SampleCount
	l.record.MinWeight = f.MinWeight
	l.record.MaxWeight = f.MaxWeight
	l.record.LeftValidation = res.LeftValidation
	l.record.RightValidation = res.RightValidation
	l.record.BalanceStatus = res.Status
	l.state = domain.StateCompleted
	return l.record.Clone(), nil
}

// Clear discards the record and returns to Idle from any state.
func (l *Lifecycle) Clear() {
	l.record = nil
	l.state = domain.StateIdle
}
