package sink

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shubhamavl/axleweigh/internal/domain"
)

var csvHeader = []string{"Sample", "Left Axle (kg)", "Right Axle (kg)"}

// WriteWindowCSV writes one row per index present in both channels.
func WriteWindowCSV(w io.Writer, left, right []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	n := min(len(left), len(right))
	row := make([]string, 3)
	for i := 0; i < n; i++ {
		row[0] = strconv.Itoa(i)
		row[1] = strconv.FormatFloat(left[i], 'f', 2, 64)
		row[2] = strconv.FormatFloat(right[i], 'f', 2, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportWindowCSV writes the window export to path atomically.
func ExportWindowCSV(path string, left, right []float64) error {
	var buf bytes.Buffer
	if err := WriteWindowCSV(&buf, left, right); err != nil {
		return &domain.ExportError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return &domain.ExportError{Path: path, Err: err}
	}
	return nil
}
