package wal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// entry format: [8 bytes id][4 bytes len][4 bytes crc32(body)][len bytes json]
const recordHeaderLen = 16

var ErrCorruptEntry = errors.New("journal: corrupt entry")

// FileJournal is an append-only record log with a separate commit marker.
// Records are synced on append: saves are rare and each one matters.
// Entries that no longer decode are copied to records.corrupt and skipped.
type FileJournal struct {
	mu          sync.Mutex
	path        string
	metaPath    string
	corruptPath string
	file        *os.File
	nextID      ports.JournalEntryID
	committed   ports.JournalEntryID
	sizeBytes   int64
	quarantined map[ports.JournalEntryID]bool
}

func NewFileJournal(dir string) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}
	path := filepath.Join(dir, "records.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &FileJournal{
		path:        path,
		metaPath:    filepath.Join(dir, "records.meta"),
		corruptPath: filepath.Join(dir, "records.corrupt"),
		file:        f,
		quarantined: make(map[ports.JournalEntryID]bool),
	}
	if err := j.recover(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return j, nil
}

// recover walks the log, cuts off a torn tail and restores the commit marker.
func (j *FileJournal) recover() error {
	var lastID ports.JournalEntryID
	valid, err := scanEntries(j.file, func(id ports.JournalEntryID, _ []byte) error {
		lastID = id
		return nil
	})
	if err != nil {
		return err
	}
	if err := j.file.Truncate(valid); err != nil {
		return fmt.Errorf("journal truncate tail: %w", err)
	}
	if _, err := j.file.Seek(valid, io.SeekStart); err != nil {
		return err
	}
	j.sizeBytes = valid
	j.nextID = lastID

	committed, err := readMeta(j.metaPath)
	if err != nil {
		return err
	}
	j.committed = committed
	if j.nextID < j.committed {
		j.nextID = j.committed
	}
	return nil
}

// scanEntries reads entries from the start of f and returns the offset just
// past the last intact one. A short or checksum-failing tail ends the scan.
func scanEntries(f *os.File, fn func(id ports.JournalEntryID, body []byte) error) (int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	r := bufio.NewReader(f)
	var offset int64
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("journal read header: %w", err)
		}
		id := ports.JournalEntryID(binary.BigEndian.Uint64(hdr[0:8]))
		length := binary.BigEndian.Uint32(hdr[8:12])
		sum := binary.BigEndian.Uint32(hdr[12:16])

		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("journal read body: %w", err)
		}
		if crc32.ChecksumIEEE(body) != sum {
			return offset, nil
		}
		if err := fn(id, body); err != nil {
			return offset, err
		}
		offset += recordHeaderLen + int64(length)
	}
}

func readMeta(path string) (ports.JournalEntryID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("journal meta parse: %w", err)
	}
	return ports.JournalEntryID(u), nil
}

func (j *FileJournal) Append(rec *domain.TestRecord) (ports.JournalEntryID, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("encode record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	id := j.nextID + 1
	buf := encodeEntry(id, body)
	if _, err := j.file.Write(buf); err != nil {
		return 0, err
	}
	if err := j.file.Sync(); err != nil {
		return 0, err
	}
	j.nextID = id
	j.sizeBytes += int64(len(buf))
	return id, nil
}

// Iterate calls fn for every entry with id >= from. Entries are read under the
// lock and fn runs without it, so fn may Commit.
func (j *FileJournal) Iterate(from ports.JournalEntryID, fn func(id ports.JournalEntryID, rec *domain.TestRecord) error) error {
	type pending struct {
		id   ports.JournalEntryID
		body []byte
	}
	var entries []pending

	j.mu.Lock()
	_, err := scanEntries(j.file, func(id ports.JournalEntryID, body []byte) error {
		if id >= from {
			entries = append(entries, pending{id: id, body: body})
		}
		return nil
	})
	if _, serr := j.file.Seek(0, io.SeekEnd); serr != nil && err == nil {
		err = serr
	}
	j.mu.Unlock()
	if err != nil {
		return err
	}

	for _, e := range entries {
		var rec domain.TestRecord
		if err := json.Unmarshal(e.body, &rec); err != nil {
			if qerr := j.quarantine(e.id, e.body); qerr != nil {
				return fmt.Errorf("%w: id=%d: %v (quarantine: %v)", ErrCorruptEntry, e.id, err, qerr)
			}
			continue
		}
		if err := fn(e.id, &rec); err != nil {
			return err
		}
	}
	return nil
}

// quarantine copies an undecodable entry to the corrupt file once and, when
// everything before it is committed, commits past it.
func (j *FileJournal) quarantine(id ports.JournalEntryID, body []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.quarantined[id] {
		f, err := os.OpenFile(j.corruptPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		if _, err := f.Write(encodeEntry(id, body)); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		j.quarantined[id] = true
	}
	if j.committed+1 == id {
		j.committed = id
		return j.persistMetaLocked()
	}
	return nil
}

// Quarantined reports how many entries this journal has set aside.
func (j *FileJournal) Quarantined() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.quarantined)
}

func encodeEntry(id ports.JournalEntryID, body []byte) []byte {
	buf := make([]byte, recordHeaderLen+len(body))
	binary.BigEndian.PutUint64(buf[0:8], uint64(id))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(body)))
	binary.BigEndian.PutUint32(buf[12:16], crc32.ChecksumIEEE(body))
	copy(buf[recordHeaderLen:], body)
	return buf
}

func (j *FileJournal) Commit(upto ports.JournalEntryID) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if upto > j.committed {
		j.committed = upto
	}
	return j.persistMetaLocked()
}

// Compact empties the log once every entry is committed. IDs keep counting
// from the commit marker.
func (j *FileJournal) Compact() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.sizeBytes == 0 || j.committed < j.nextID {
		return nil
	}
	if err := j.file.Truncate(0); err != nil {
		return err
	}
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	j.sizeBytes = 0
	return nil
}

func (j *FileJournal) Stats() ports.JournalStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return ports.JournalStats{
		OldestUncommitted: j.committed + 1,
		LatestAppended:    j.nextID,
		SizeBytes:         j.sizeBytes,
	}
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

func (j *FileJournal) persistMetaLocked() error {
	tmp := j.metaPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(fmt.Sprintf("%d\n", j.committed)), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, j.metaPath)
}

var _ ports.RecordJournal = (*FileJournal)(nil)
