package sink

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shubhamavl/axleweigh/internal/domain"
)

func TestJSONSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONSink(dir)
	rec := finalizedRecord()

	if err := s.WriteRecord(context.Background(), rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadRecordJSON(s.Path(rec))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if got.ID != rec.ID || got.AxleNumber != rec.AxleNumber || !got.StartTime.Equal(rec.StartTime) ||
		got.EndTime == nil || !got.EndTime.Equal(*rec.EndTime) {
		t.Fatalf("identity fields differ: %+v vs %+v", got, rec)
	}
	if got.LeftWeight != rec.LeftWeight || got.RightWeight != rec.RightWeight ||
		got.SampleCount != rec.SampleCount || got.MinWeight != rec.MinWeight || got.MaxWeight != rec.MaxWeight {
		t.Fatalf("measurements differ: %+v vs %+v", got, rec)
	}
	if got.LeftValidation != rec.LeftValidation || got.RightValidation != rec.RightValidation ||
		got.BalanceStatus != rec.BalanceStatus {
		t.Fatalf("verdicts differ: %+v vs %+v", got, rec)
	}
}

func TestJSONSinkUsesLowerCamelCase(t *testing.T) {
	data, err := json.Marshal(finalizedRecord())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "axleNumber", "startTime", "endTime", "leftWeight", "rightWeight",
		"sampleCount", "minWeight", "maxWeight", "leftValidation", "rightValidation", "balanceStatus"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing field %q in %s", key, data)
		}
	}
	if fields["balanceStatus"] != "Warning" || fields["leftValidation"] != "Pass" {
		t.Fatalf("verdicts must serialize as names: %s", data)
	}
}

func TestJSONSinkReportsExportError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	err := NewJSONSink(filepath.Join(blocker, "reports")).WriteRecord(context.Background(), finalizedRecord())
	var exportErr *domain.ExportError
	if !errors.As(err, &exportErr) || !strings.Contains(exportErr.Path, "reports") {
		t.Fatalf("expected ExportError, got %v", err)
	}
}
