package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// JSONSink writes one indented JSON report per record into a directory. The
// file name is derived from the record ID, so rewriting a record replaces it.
type JSONSink struct {
	dir string
}

func NewJSONSink(dir string) *JSONSink {
	return &JSONSink{dir: dir}
}

func (s *JSONSink) Name() string { return "json" }

// Path returns where rec is written.
func (s *JSONSink) Path(rec *domain.TestRecord) string {
	return filepath.Join(s.dir, fmt.Sprintf("axle%d_%s.json", rec.AxleNumber, rec.ID))
}

func (s *JSONSink) WriteRecord(_ context.Context, rec *domain.TestRecord) error {
	if rec == nil {
		return nil
	}
	return WriteRecordJSON(s.Path(rec), rec)
}

// WriteRecordJSON writes rec to path atomically.
func WriteRecordJSON(path string, rec *domain.TestRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return &domain.ExportError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return &domain.ExportError{Path: path, Err: err}
	}
	return nil
}

// ReadRecordJSON loads a report written by WriteRecordJSON.
func ReadRecordJSON(path string) (*domain.TestRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec domain.TestRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &rec, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ ports.RecordSink = (*JSONSink)(nil)
