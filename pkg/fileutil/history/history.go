package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jamesainslie/fileutil/pkg/fileutil/logging"
)

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("history entry not found")

// ErrAmbiguous is returned by Get when an ID prefix matches several entries.
var ErrAmbiguous = errors.New("ambiguous history entry ID")

// prefixEntry namespaces entry keys. UUIDv7 IDs make key order record order.
const prefixEntry = "entry/"

// Store keeps history entries in a Badger database below a directory.
type Store struct {
	dir string
	db  *badger.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source used for timestamps and retention.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens or creates the store in dir. Only one Store may hold a
// directory at a time; callers must Close it.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	bopts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{dir: dir, db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the directory entries are stored in.
func (s *Store) Dir() string {
	return s.dir
}

func entryKey(id string) []byte {
	return []byte(prefixEntry + id)
}

// Record persists a new entry for op and returns it.
func (s *Store) Record(op Operation, params map[string]string, files []FileRecord) (*Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating entry ID: %w", err)
	}

	var total uint64
	for _, f := range files {
		total += f.Size
	}
	if files == nil {
		files = []FileRecord{}
	}

	entry := &Entry{
		ID:        id.String(),
		Timestamp: s.now().UTC(),
		Operation: op,
		Params:    params,
		Files:     files,
		Summary: Summary{
			TotalFiles: int64(len(files)),
			TotalBytes: total,
		},
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshaling entry: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("writing history entry: %w", err)
	}

	logging.Get("history").Debug("entry recorded", "id", entry.ID, "operation", op)
	return entry, nil
}

// List returns entries newest first. A non-positive limit returns all of
// them. Undecodable entries are skipped.
func (s *Store) List(limit int) ([]Entry, error) {
	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	// Key order breaks timestamp ties.
	slices.Reverse(entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEntry)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting history entries: %w", err)
	}
	return n, nil
}

// Get returns the entry whose ID equals id or, failing that, the single
// entry whose ID starts with id.
func (s *Store) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	var (
		match   []byte
		matches int
	)
	want := entryKey(id)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(want); it.ValidForPrefix(want); it.Next() {
			item := it.Item()
			exact := bytes.Equal(item.Key(), want)
			if !exact && matches > 0 {
				matches++
				return nil
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			match = data
			matches++
			if exact {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history entry: %w", err)
	}

	switch {
	case matches == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case matches > 1:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}

	var entry Entry
	if err := json.Unmarshal(match, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling entry %s: %w", id, err)
	}
	return &entry, nil
}

// Cleanup removes entries recorded more than retentionDays ago and returns
// how many were removed. A non-positive retention removes nothing.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	entries, err := s.readAll()
	if err != nil {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	removed := 0
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := wb.Delete(entryKey(e.ID)); err != nil {
			return 0, fmt.Errorf("removing history entry %s: %w", e.ID, err)
		}
		removed++
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("removing history entries: %w", err)
	}

	logging.Get("history").Debug("history cleaned", "removed", removed, "retention_days", retentionDays)
	return removed, nil
}

// readAll returns every decodable entry in key order.
func (s *Store) readAll() ([]Entry, error) {
	logger := logging.Get("history")
	entries := []Entry{}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixEntry)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var entry Entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logger.Debug("skipping unreadable entry", "key", string(item.Key()), "err", err)
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}
