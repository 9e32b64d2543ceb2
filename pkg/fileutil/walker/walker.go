// Package walker provides a lazy, sequential directory traversal.
//
// A Walker is a pull-based iterator over the entries below a root directory.
// Directories are read one at a time from an explicit FIFO worklist, so the
// traversal is breadth-first, deterministic (os.ReadDir sorts by name) and
// never holds more than one directory listing in memory besides the queue.
package walker

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/charlievieth/fastwalk"
)

// Options configures a Walker.
type Options struct {
	// Recursive descends into subdirectories. When false only the immediate
	// children of the root are produced.
	Recursive bool

	// FollowSymlinks descends into symbolic links that point at directories.
	// It only has an effect when Recursive is set.
	FollowSymlinks bool

	// Skip is consulted for every entry with its root-relative path. A skipped
	// directory is neither produced nor descended.
	Skip func(rel string, d fs.DirEntry) bool

	// OnError is called for directories that cannot be read. The walk always
	// continues.
	OnError func(path string, err error)
}

// Entry is a filesystem entry produced by a Walker.
type Entry struct {
	// Path is the entry path joined onto the root as given.
	Path string

	// Rel is the path relative to the root.
	Rel string

	// Depth is the number of directories between the root and the entry.
	Depth int

	d    fs.DirEntry
	info fs.FileInfo
}

// Name returns the base name of the entry.
func (e Entry) Name() string {
	return e.d.Name()
}

// DirEntry returns the underlying directory entry, which describes a symbolic
// link itself rather than its target.
func (e Entry) DirEntry() fs.DirEntry {
	return e.d
}

// IsSymlink reports whether the entry is a symbolic link.
func (e Entry) IsSymlink() bool {
	return e.d.Type()&fs.ModeSymlink != 0
}

// IsDir reports whether the entry is a directory or a symbolic link the walker
// already resolved to one.
func (e Entry) IsDir() bool {
	if e.d.IsDir() {
		return true
	}
	return e.info != nil && e.info.IsDir()
}

// Stat returns information about the entry, following symbolic links.
func (e Entry) Stat() (fs.FileInfo, error) {
	if e.info != nil {
		return e.info, nil
	}
	return fastwalk.StatDirEntry(e.Path, e.d)
}

// dirItem is a directory waiting in the worklist.
type dirItem struct {
	path  string
	rel   string
	depth int
}

// Walker iterates over the entries below a root directory.
// It is not safe for concurrent use and cannot be restarted.
type Walker struct {
	root string
	opts Options

	queue   []dirItem
	current dirItem
	pending []fs.DirEntry

	entry   Entry
	err     error
	started bool
	done    bool

	visited  map[dirKey]struct{}
	dirsRead int64
}

// New creates a Walker rooted at root. No filesystem access happens until the
// first call to Next.
func New(root string, opts Options) *Walker {
	w := &Walker{
		root: root,
		opts: opts,
	}
	if opts.Recursive && opts.FollowSymlinks {
		w.visited = make(map[dirKey]struct{})
	}
	return w
}

// Next advances to the next entry. It returns false when the walk is
// exhausted or the root cannot be read; Err distinguishes the two.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}

	for {
		if len(w.pending) > 0 {
			d := w.pending[0]
			w.pending = w.pending[1:]
			if e, ok := w.visit(d); ok {
				w.entry = e
				return true
			}
			continue
		}

		if !w.started {
			w.started = true
			if err := w.readRoot(); err != nil {
				w.err = err
				w.done = true
				return false
			}
			continue
		}

		if len(w.queue) == 0 {
			w.done = true
			w.entry = Entry{}
			return false
		}

		w.current = w.queue[0]
		w.queue = w.queue[1:]
		w.pending = w.readDir(w.current.path)
	}
}

// Entry returns the entry produced by the last successful call to Next.
func (w *Walker) Entry() Entry {
	return w.entry
}

// Err returns the error that stopped the walk, if any. Unreadable
// subdirectories are not errors; they are reported through Options.OnError.
func (w *Walker) Err() error {
	return w.err
}

// DirsRead returns the number of directories listed so far, the root included.
func (w *Walker) DirsRead() int64 {
	return w.dirsRead
}

// All returns an iterator over the remaining entries.
func (w *Walker) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for w.Next() {
			if !yield(w.entry) {
				return
			}
		}
	}
}

// readRoot lists the root directory. Unlike subdirectories, a root that
// cannot be opened ends the walk with an error.
func (w *Walker) readRoot() error {
	w.current = dirItem{path: w.root, rel: "", depth: 0}
	w.markVisited(w.root)

	entries, err := os.ReadDir(w.root)
	if err != nil && len(entries) == 0 {
		return fmt.Errorf("reading directory %s: %w", w.root, err)
	}
	w.dirsRead++
	if err != nil {
		w.reportError(w.root, err)
	}
	w.pending = entries
	return nil
}

// readDir lists a subdirectory. On error whatever was read is kept.
func (w *Walker) readDir(path string) []fs.DirEntry {
	entries, err := os.ReadDir(path)
	if err != nil {
		w.reportError(path, err)
		if len(entries) == 0 {
			return nil
		}
	}
	w.dirsRead++
	return entries
}

// visit builds the Entry for d and queues it for descent when needed.
// It returns false when the entry is skipped.
func (w *Walker) visit(d fs.DirEntry) (Entry, bool) {
	e := Entry{
		Path:  filepath.Join(w.current.path, d.Name()),
		Rel:   filepath.Join(w.current.rel, d.Name()),
		Depth: w.current.depth,
		d:     d,
	}

	if w.opts.Skip != nil && w.opts.Skip(e.Rel, d) {
		return Entry{}, false
	}

	if e.IsSymlink() && w.opts.Recursive && w.opts.FollowSymlinks {
		// A dangling link stays unresolved; Stat reports the error to the caller.
		if info, err := fastwalk.StatDirEntry(e.Path, d); err == nil {
			e.info = info
		}
	}

	if w.opts.Recursive && w.shouldDescend(e) {
		w.queue = append(w.queue, dirItem{path: e.Path, rel: e.Rel, depth: e.Depth + 1})
	}

	return e, true
}

// shouldDescend reports whether a directory entry joins the worklist.
func (w *Walker) shouldDescend(e Entry) bool {
	if e.IsSymlink() {
		if !w.opts.FollowSymlinks || e.info == nil || !e.info.IsDir() {
			return false
		}
	} else if !e.d.IsDir() {
		return false
	}

	if w.visited == nil {
		return true
	}
	return w.markVisited(e.Path)
}

// markVisited records the directory identity of path. It returns false if
// the directory was seen before, which happens with symlink cycles.
func (w *Walker) markVisited(path string) bool {
	if w.visited == nil {
		return true
	}
	key, err := identify(path)
	if err != nil {
		// Unidentifiable directories are still walked once through this path.
		return true
	}
	if _, seen := w.visited[key]; seen {
		return false
	}
	w.visited[key] = struct{}{}
	return true
}

// reportError forwards a recoverable error to the OnError callback.
func (w *Walker) reportError(path string, err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(path, err)
	}
}
