package ports

import "github.com/shubhamavl/axleweigh/internal/domain"

type JournalEntryID uint64

// RecordJournal is the durable outbox that saved records pass through before
// they reach the record sinks.
type RecordJournal interface {
	Append(rec *domain.TestRecord) (JournalEntryID, error)
	Iterate(from JournalEntryID, fn func(id JournalEntryID, rec *domain.TestRecord) error) error
	Commit(upto JournalEntryID) error
	Stats() JournalStats
	// Compact drops committed entries from storage.
	Compact() error
	Close() error
}

type JournalStats struct {
	OldestUncommitted JournalEntryID
	LatestAppended    JournalEntryID
	SizeBytes         int64
}
