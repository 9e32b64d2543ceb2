package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// clock returns a controllable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := Open(filepath.Join(t.TempDir(), "history"), WithClock(c.Now))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s, c
}

func TestOpen(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("Open(\"\") error = nil, want error")
	}

	dir := filepath.Join(t.TempDir(), "nested", "history")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("history directory not created: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestStore_Persistence(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	entry, err := s.Record(OpSizeRank, map[string]string{"top": "3"}, []FileRecord{{Path: "/a", Size: 7}})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	got, err := s.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Params["top"] != "3" || len(got.Files) != 1 || got.Files[0].Size != 7 {
		t.Errorf("Get() = %+v", got)
	}
	if !got.Timestamp.Equal(entry.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, entry.Timestamp)
	}
}

func TestStore_Record(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t)

	files := []FileRecord{
		{Path: "/data/a", Size: 100},
		{Path: "/data/b", Size: 50},
	}
	params := map[string]string{"dir": "/data", "top": "2"}

	entry, err := s.Record(OpSizeRank, params, files)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if entry.Operation != OpSizeRank {
		t.Errorf("Operation = %q, want %q", entry.Operation, OpSizeRank)
	}
	if entry.Summary.TotalFiles != 2 || entry.Summary.TotalBytes != 150 {
		t.Errorf("Summary = %+v, want 2 files / 150 bytes", entry.Summary)
	}
	if len(entry.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", entry.ID)
	}
	if !entry.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %v", entry.Timestamp)
	}

	n, err := s.Count()
	if err != nil || n != 1 {
		t.Errorf("Count() = %d, %v; want 1", n, err)
	}
}

func TestStore_RecordNilFiles(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t)

	entry, err := s.Record(OpRepeat, nil, nil)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if entry.Files == nil {
		t.Error("Files = nil, want empty slice")
	}

	got, err := s.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Params != nil {
		t.Errorf("Params = %v, want nil", got.Params)
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()
	s, c := newStore(t)

	entries, err := s.List(0)
	if err != nil {
		t.Fatalf("List() on empty store error = %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("List() = %v, want empty slice", entries)
	}

	var ids []string
	for i := range 5 {
		e, err := s.Record(OpRepeat, map[string]string{"n": string(rune('a' + i))}, nil)
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		ids = append(ids, e.ID)
		c.Advance(time.Minute)
	}

	// An undecodable value that List must skip.
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey("broken"), []byte("{"))
	})
	if err != nil {
		t.Fatal(err)
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("List() returned %d entries, want 5", len(all))
	}
	for i, e := range all {
		if want := ids[len(ids)-1-i]; e.ID != want {
			t.Errorf("List()[%d].ID = %s, want %s (newest first)", i, e.ID, want)
		}
	}

	limited, err := s.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 || limited[0].ID != ids[4] {
		t.Errorf("List(2) = %v", limited)
	}

	n, err := s.Count()
	if err != nil || n != 6 {
		t.Errorf("Count() = %d, %v; want 6 stored values", n, err)
	}
}

func TestStore_Get(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t)

	a, err := s.Record(OpSizeRank, nil, []FileRecord{{Path: "x", Size: 1}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Record(OpRepeat, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(a.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != a.ID || len(got.Files) != 1 {
		t.Errorf("Get() = %+v", got)
	}

	// The full ID minus its last character is a unique prefix.
	got, err = s.Get(b.ID[:len(b.ID)-1])
	if err != nil {
		t.Fatalf("Get(prefix) error = %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("Get(prefix).ID = %s, want %s", got.ID, b.ID)
	}

	if _, err := s.Get("ffffffff-no-such-entry"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(""); err == nil {
		t.Error("Get(\"\") error = nil, want error")
	}

	// Both UUIDv7 IDs share their leading timestamp digits.
	if _, err := s.Get(a.ID[:4]); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("Get(short prefix) error = %v, want ErrAmbiguous", err)
	}
}

func TestStore_Cleanup(t *testing.T) {
	t.Parallel()
	s, c := newStore(t)

	old, err := s.Record(OpRepeat, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(20 * 24 * time.Hour)
	recent, err := s.Record(OpSizeRank, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(5 * 24 * time.Hour)

	removed, err := s.Cleanup(10)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}

	if _, err := s.Get(old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("old entry still present: %v", err)
	}
	if _, err := s.Get(recent.ID); err != nil {
		t.Errorf("recent entry removed: %v", err)
	}

	if removed, err := s.Cleanup(0); err != nil || removed != 0 {
		t.Errorf("Cleanup(0) = %d, %v; want 0, nil", removed, err)
	}
}

func TestStore_CleanupEmpty(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t)

	removed, err := s.Cleanup(30)
	if err != nil || removed != 0 {
		t.Errorf("Cleanup() = %d, %v; want 0, nil", removed, err)
	}
}

func TestStore_ConcurrentRecord(t *testing.T) {
	t.Parallel()
	s, _ := newStore(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Record(OpRepeat, nil, nil); err != nil {
				t.Errorf("Record() error = %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := s.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Errorf("List() returned %d entries, want 10", len(entries))
	}
	for _, e := range entries {
		if strings.Count(e.ID, "-") != 4 {
			t.Errorf("unexpected ID format %q", e.ID)
		}
	}
}
