package ports

import (
	"context"

	"github.com/shubhamavl/axleweigh/internal/domain"
)

// RecordSink persists finalized test records.
type RecordSink interface {
	WriteRecord(ctx context.Context, rec *domain.TestRecord) error
	Name() string
}

// DisplaySink receives the per-tick display snapshot. It runs on the
// consumer goroutine and must return quickly.
type DisplaySink func(domain.Snapshot)
