package domain

import "fmt"

// LifecycleState is the test session state.
type LifecycleState uint8

const (
	StateIdle LifecycleState = iota
	StateReading
	StateStopped
	StateCompleted
)

func (s LifecycleState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReading:
		return "Reading"
	case StateStopped:
		return "Stopped"
	case StateCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("LifecycleState(%d)", uint8(s))
	}
}

func (s LifecycleState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *LifecycleState) UnmarshalText(b []byte) error {
	for _, v := range []LifecycleState{StateIdle, StateReading, StateStopped, StateCompleted} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown lifecycle state %q", b)
}
