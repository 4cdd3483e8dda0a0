package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Validation is the per-channel minimum-weight verdict.
type Validation uint8

const (
	ValidationFail Validation = iota
	ValidationPass
)

func (v Validation) String() string {
	if v == ValidationPass {
		return "Pass"
	}
	return "Fail"
}

func (v Validation) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Validation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Pass":
		*v = ValidationPass
	case "Fail":
		*v = ValidationFail
	default:
		return fmt.Errorf("unknown validation %q", b)
	}
	return nil
}

// BalanceStatus summarises the left/right ratio check.
type BalanceStatus uint8

const (
	BalanceNotTested BalanceStatus = iota
	BalancePass
	BalanceWarning
)

func (b BalanceStatus) String() string {
	switch b {
	case BalancePass:
		return "Pass"
	case BalanceWarning:
		return "Warning"
	default:
		return "NotTested"
	}
}

func (b BalanceStatus) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *BalanceStatus) UnmarshalText(raw []byte) error {
	switch string(raw) {
	case "Pass":
		*b = BalancePass
	case "Warning":
		*b = BalanceWarning
	case "NotTested":
		*b = BalanceNotTested
	default:
		return fmt.Errorf("unknown balance status %q", raw)
	}
	return nil
}

// TestRecord is the report of one axle test. It is created when a session
// starts, completed on save and never modified afterwards.
type TestRecord struct {
	ID              uuid.UUID     `json:"id"`
	AxleNumber      uint8         `json:"axleNumber"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         *time.Time    `json:"endTime,omitempty"`
	LeftWeight      float64       `json:"leftWeight"`
	RightWeight     float64       `json:"rightWeight"`
	SampleCount     uint64        `json:"sampleCount"`
	MinWeight       float64       `json:"minWeight"`
	MaxWeight       float64       `json:"maxWeight"`
	LeftValidation  Validation    `json:"leftValidation"`
	RightValidation Validation    `json:"rightValidation"`
	BalanceStatus   BalanceStatus `json:"balanceStatus"`
}

// Finalized reports whether save has filled the record.
func (r *TestRecord) Finalized() bool { return r != nil && r.EndTime != nil }

// Clone returns a deep copy so callers outside the consumer goroutine can hold it.
func (r *TestRecord) Clone() *TestRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.EndTime != nil {
		end := *r.EndTime
		out.EndTime = &end
	}
	return &out
}
