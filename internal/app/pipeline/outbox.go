package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// DefaultMaxDeliveryAttempts is how often a journal entry is retried before it
// is moved to the dead-letter sink.
const DefaultMaxDeliveryAttempts = 5

// ErrRecordParked reports a record that was moved to the dead-letter sink.
var ErrRecordParked = errors.New("record moved to dead letter")

// RecordOutbox journals saved records and fans them out to every sink. A
// journal entry is committed only after all sinks accepted it, so sinks must
// tolerate re-delivery of the same record ID. With a dead-letter sink set, an
// entry that keeps failing is parked there and committed so it no longer
// blocks the entries behind it.
type RecordOutbox struct {
	mu      sync.Mutex
	journal ports.RecordJournal
	sinks   []ports.RecordSink
	obs     ports.Observability

	deadLetter  ports.RecordSink
	maxAttempts int
	attempts    map[ports.JournalEntryID]int
}

func NewRecordOutbox(j ports.RecordJournal, sinks []ports.RecordSink, obs ports.Observability) *RecordOutbox {
	return &RecordOutbox{
		journal:     j,
		sinks:       sinks,
		obs:         obs,
		maxAttempts: DefaultMaxDeliveryAttempts,
		attempts:    make(map[ports.JournalEntryID]int),
	}
}

// SetDeadLetter parks entries in s after maxAttempts failed deliveries.
// maxAttempts <= 0 keeps DefaultMaxDeliveryAttempts.
func (o *RecordOutbox) SetDeadLetter(s ports.RecordSink, maxAttempts int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deadLetter = s
	if maxAttempts > 0 {
		o.maxAttempts = maxAttempts
	}
}

// Persist appends rec to the journal and delivers the whole backlog.
func (o *RecordOutbox) Persist(ctx context.Context, rec *domain.TestRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	o.obs.IncCounter("axle_records_saved_total", 1)
	if o.journal == nil {
		return o.deliver(ctx, rec)
	}
	if _, err := o.journal.Append(rec); err != nil {
		o.obs.LogCritical("journal_append_failed", err, ports.Field{Key: "record", Value: rec.ID.String()})
		return fmt.Errorf("journal append: %w", err)
	}
	return o.flushLocked(ctx)
}

// Flush retries every uncommitted journal entry.
func (o *RecordOutbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.journal == nil {
		return nil
	}
	return o.flushLocked(ctx)
}

func (o *RecordOutbox) flushLocked(ctx context.Context) error {
	stats := o.journal.Stats()
	if stats.LatestAppended == 0 || stats.OldestUncommitted > stats.LatestAppended {
		return nil
	}

	var delivered int
	var parked []error
	err := o.journal.Iterate(stats.OldestUncommitted, func(id ports.JournalEntryID, rec *domain.TestRecord) error {
		derr := o.deliver(ctx, rec)
		if derr != nil && !o.park(ctx, id, rec, derr) {
			return derr
		}
		if err := o.journal.Commit(id); err != nil {
			return fmt.Errorf("journal commit: %w", err)
		}
		if derr != nil {
			parked = append(parked, fmt.Errorf("%w: record %s: %v", ErrRecordParked, rec.ID, derr))
			return nil
		}
		delete(o.attempts, id)
		delivered++
		return nil
	})
	if delivered > 0 {
		o.obs.LogInfo("records_delivered",
			ports.Field{Key: "records", Value: delivered},
			ports.Field{Key: "from_id", Value: stats.OldestUncommitted})
	}
	if err == nil {
		if cerr := o.journal.Compact(); cerr != nil {
			o.obs.LogError("journal_compact_failed", cerr)
		}
	}
	o.obs.SetGauge("axle_journal_size_bytes", float64(o.journal.Stats().SizeBytes))
	return errors.Join(append(parked, err)...)
}

// park counts a failed delivery of entry id and, once the limit is reached,
// hands rec to the dead-letter sink. It reports whether rec was parked.
func (o *RecordOutbox) park(ctx context.Context, id ports.JournalEntryID, rec *domain.TestRecord, cause error) bool {
	if o.deadLetter == nil || ctx.Err() != nil {
		return false
	}
	o.attempts[id]++
	if o.attempts[id] < o.maxAttempts {
		return false
	}
	if err := o.deadLetter.WriteRecord(ctx, rec); err != nil {
		o.obs.LogError("dead_letter_write_failed", err, ports.Field{Key: "record", Value: rec.ID.String()})
		return false
	}
	delete(o.attempts, id)
	o.obs.IncCounter("axle_records_parked_total", 1)
	o.obs.LogCritical("record_parked", cause,
		ports.Field{Key: "record", Value: rec.ID.String()},
		ports.Field{Key: "attempts", Value: o.maxAttempts},
		ports.Field{Key: "dead_letter", Value: o.deadLetter.Name()})
	return true
}

func (o *RecordOutbox) deliver(ctx context.Context, rec *domain.TestRecord) error {
	for _, s := range o.sinks {
		if err := s.WriteRecord(ctx, rec); err != nil {
			o.obs.IncCounter("axle_record_sink_failures_total", 1)
			return fmt.Errorf("sink %s: %w", s.Name(), err)
		}
	}
	return nil
}
