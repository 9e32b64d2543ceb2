// Package output renders size rankings in the formats fileutil supports.
//
// Formatters are looked up by name in a registry, so the sizerank command can
// select one from a flag or the configuration file:
//
//	formatter, err := output.Get("text")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/fileutil/pkg/fileutil/ranker"
	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

// Entry is one ranked file prepared for display.
type Entry struct {
	// Rank is the 1-based position in the ranking.
	Rank int `json:"rank" yaml:"rank"`

	// Path is the file path joined onto the scan root.
	Path string `json:"path" yaml:"path"`

	// Rel is the path relative to the scan root.
	Rel string `json:"rel" yaml:"rel"`

	// Size is the file size in bytes.
	Size uint64 `json:"size" yaml:"size"`

	// SizeHuman is Size rendered by types.FormatSize.
	SizeHuman string `json:"size_human" yaml:"size_human"`
}

// Result is a ranking together with the request that produced it.
type Result struct {
	// Root is the scanned directory.
	Root string

	// Recursive reports whether subdirectories were scanned.
	Recursive bool

	// MinSize and MaxSize are the inclusive size bounds.
	MinSize uint64
	MaxSize uint64

	// Pattern is the name pattern as given. Empty matches every name.
	Pattern string

	// Top is the requested number of files.
	Top int

	// Entries are the ranked files, largest first.
	Entries []Entry

	// Stats are the walk counters.
	Stats types.ScanStats
}

// NewResult combines a scan configuration and its outcome.
func NewResult(cfg *ranker.ScanConfig, res *ranker.Result) *Result {
	entries := make([]Entry, len(res.Entries))
	for i, c := range res.Entries {
		entries[i] = Entry{
			Rank:      i + 1,
			Path:      c.Path,
			Rel:       res.Rel(c.Path),
			Size:      c.Size,
			SizeHuman: c.HumanSize(),
		}
	}

	return &Result{
		Root:      res.Root,
		Recursive: cfg.Recursive,
		MinSize:   cfg.MinSize,
		MaxSize:   cfg.MaxSize,
		Pattern:   cfg.PatternExpr,
		Top:       cfg.Top,
		Entries:   entries,
		Stats:     res.Stats,
	}
}

// TotalSize returns the sum of all ranked sizes.
func (r *Result) TotalSize() uint64 {
	var total uint64
	for _, e := range r.Entries {
		total += e.Size
	}
	return total
}

// Formatter renders a Result.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any existing one of that name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return factory(), nil
}

// Available returns the sorted names of all registered formatters.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
