package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStateTextRoundTrip(t *testing.T) {
	for _, s := range []LifecycleState{StateIdle, StateReading, StateStopped, StateCompleted} {
		b, _ := s.MarshalText()
		var got LifecycleState
		if err := got.UnmarshalText(b); err != nil || got != s {
			t.Fatalf("%s: round trip gave %v (%v)", s, got, err)
		}
	}
	var s LifecycleState
	if err := s.UnmarshalText([]byte("Paused")); err == nil {
		t.Fatalf("expected unknown state to fail")
	}
}

func TestRecordCloneIsDeep(t *testing.T) {
	end := time.Unix(50, 0)
	rec := &TestRecord{ID: uuid.New(), StartTime: time.Unix(10, 0), EndTime: &end}
	c := rec.Clone()
	*c.EndTime = time.Unix(99, 0)
	if !rec.EndTime.Equal(end) {
		t.Fatalf("clone shares the end time")
	}
	if !rec.Finalized() || (&TestRecord{}).Finalized() {
		t.Fatalf("finalized is keyed on the end time")
	}
	var nilRec *TestRecord
	if nilRec.Clone() != nil || nilRec.Finalized() {
		t.Fatalf("nil record must stay nil")
	}
}

func TestRecordVerdictsDecode(t *testing.T) {
	var rec TestRecord
	raw := `{"leftValidation":"Pass","rightValidation":"Fail","balanceStatus":"Warning"}`
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.LeftValidation != ValidationPass || rec.RightValidation != ValidationFail || rec.BalanceStatus != BalanceWarning {
		t.Fatalf("unexpected verdicts %+v", rec)
	}
	if err := json.Unmarshal([]byte(`{"balanceStatus":"Wobbly"}`), &rec); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestExportErrorUnwraps(t *testing.T) {
	base := errors.New("permission denied")
	err := error(&ExportError{Path: "/tmp/x.csv", Err: base})
	if !errors.Is(err, base) || err.Error() != "export /tmp/x.csv: permission denied" {
		t.Fatalf("unexpected export error %v", err)
	}
}

func TestSampleTotal(t *testing.T) {
	r := Reading{Left: 40, Right: 60, Timestamp: time.Unix(1, 0)}
	if s := r.Sample(); s.Total() != 100 || !s.Timestamp.Equal(r.Timestamp) {
		t.Fatalf("unexpected sample %+v", s)
	}
}
