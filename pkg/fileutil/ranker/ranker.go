// Package ranker finds the largest files below a directory.
//
// A scan is strictly sequential: a walker.Walker produces entries lazily, a
// filter.Filter decides which of them may compete, and a Collector keeps the
// top N sorted by size. Memory use is bounded by N regardless of the size of
// the tree.
package ranker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
	"github.com/jamesainslie/fileutil/pkg/fileutil/filter"
	"github.com/jamesainslie/fileutil/pkg/fileutil/logging"
	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
	"github.com/jamesainslie/fileutil/pkg/fileutil/walker"
)

// DefaultTop is the number of files ranked when no count is given.
const DefaultTop = 10

// Options are the raw, unvalidated scan settings as a user supplied them.
type Options struct {
	// Root is the directory to scan. Empty means the working directory.
	Root string

	// Recursive scans all subdirectories.
	Recursive bool

	// FollowSymlinks descends into symlinked directories during a recursive scan.
	FollowSymlinks bool

	// MinSize and MaxSize bound file sizes inclusively. They accept plain byte
	// counts or humanized sizes such as "10MB". Empty means unbounded.
	MinSize string
	MaxSize string

	// Pattern is a regular expression that must match the whole base name.
	Pattern string

	// Top is the number of files to keep.
	Top int

	// Exclude holds glob patterns for root-relative paths to leave out.
	Exclude []string

	// Out is an optional report file. It is only validated here.
	Out string
}

// DefaultOptions returns options for a non-recursive top-10 scan of the
// working directory.
func DefaultOptions() Options {
	return Options{Top: DefaultTop}
}

// ScanConfig is a validated scan request. It is immutable once built.
type ScanConfig struct {
	Root           string
	Recursive      bool
	FollowSymlinks bool
	MinSize        uint64
	MaxSize        uint64
	Pattern        *regexp.Regexp
	PatternExpr    string
	Top            int
	Excludes       []string
	Out            string

	filter *filter.Filter
}

// NewScanConfig validates opts. Every violated constraint is reported; the
// returned error is an exit.Errors whose first element decides the exit code.
func NewScanConfig(opts Options) (*ScanConfig, error) {
	var errs exit.Errors

	cfg := &ScanConfig{
		Root:           opts.Root,
		Recursive:      opts.Recursive,
		FollowSymlinks: opts.FollowSymlinks,
		MaxSize:        types.Unbounded,
		PatternExpr:    opts.Pattern,
		Top:            opts.Top,
		Excludes:       opts.Exclude,
		Out:            opts.Out,
	}

	sizesOK := true
	if opts.MinSize != "" {
		v, err := types.ParseSize(opts.MinSize)
		if err != nil {
			errs.Add(exit.BadOptionValue, "invalid --minsize %q: %v", opts.MinSize, err)
			sizesOK = false
		}
		cfg.MinSize = v
	}
	if opts.MaxSize != "" {
		v, err := types.ParseSize(opts.MaxSize)
		if err != nil {
			errs.Add(exit.BadOptionValue, "invalid --maxsize %q: %v", opts.MaxSize, err)
			sizesOK = false
		}
		cfg.MaxSize = v
	}
	if sizesOK && cfg.MinSize > cfg.MaxSize {
		errs.Add(exit.BadOptionValue, "--minsize (%d) must not exceed --maxsize (%d)", cfg.MinSize, cfg.MaxSize)
	}

	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			errs.Add(exit.Internal, "determining working directory: %v", err)
		}
		cfg.Root = wd
	}
	if cfg.Root != "" {
		info, err := os.Stat(cfg.Root)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			errs.Add(exit.FileNotFound, "directory %q does not exist", cfg.Root)
		case err != nil:
			errs.Add(exit.FileOpenFailed, "cannot access directory %q: %v", cfg.Root, err)
		case !info.IsDir():
			errs.Add(exit.BadOptionValue, "%q is not a directory", cfg.Root)
		}
	}

	pattern, err := filter.CompilePattern(opts.Pattern)
	if err != nil {
		errs.Add(exit.BadOptionValue, "invalid --pattern: %v", err)
	}
	cfg.Pattern = pattern

	if opts.Top < 0 {
		errs.Add(exit.BadOptionValue, "--top must not be negative, got %d", opts.Top)
	}

	globs, err := filter.CompileGlobs(opts.Exclude)
	if err != nil {
		errs.Add(exit.BadOptionValue, "invalid --exclude: %v", err)
	}

	if opts.Out != "" {
		validateOut(&errs, opts.Out)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	cfg.filter = filter.New(
		filter.WithSizeRange(cfg.MinSize, cfg.MaxSize),
		filter.WithPattern(pattern),
		filter.WithExclude(globs...),
	)
	return cfg, nil
}

func validateOut(errs *exit.Errors, out string) {
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		errs.Add(exit.BadOptionValue, "--out %q is a directory", out)
		return
	}
	parent := filepath.Dir(out)
	info, err := os.Stat(parent)
	switch {
	case err != nil:
		errs.Add(exit.FileOpenFailed, "cannot create %q: directory %q is not accessible", out, parent)
	case !info.IsDir():
		errs.Add(exit.FileOpenFailed, "cannot create %q: %q is not a directory", out, parent)
	}
}

// Filter returns the filter built from the configuration.
func (c *ScanConfig) Filter() *filter.Filter {
	return c.filter
}

// Result is the outcome of a scan.
type Result struct {
	// Root is the scanned directory.
	Root string `json:"root" yaml:"root"`

	// Entries are the ranked files, largest first.
	Entries []types.FileCandidate `json:"entries" yaml:"entries"`

	// Stats are counters collected during the walk.
	Stats types.ScanStats `json:"stats" yaml:"stats"`
}

// Rel returns path relative to the scan root, or path itself when it is not
// below the root.
func (r *Result) Rel(path string) string {
	rel, err := filepath.Rel(r.Root, path)
	if err != nil {
		return path
	}
	return rel
}

// Rank scans the tree described by cfg and returns its largest files.
//
// Entries whose metadata cannot be read and directories that cannot be
// opened are skipped and counted; only a failure to read the root itself is
// returned. Cancellation of ctx is checked between entries.
func Rank(ctx context.Context, cfg *ScanConfig) (*Result, error) {
	logger := logging.Get("ranker")
	start := time.Now()

	f := cfg.filter
	if f == nil {
		globs, err := filter.CompileGlobs(cfg.Excludes)
		if err != nil {
			return nil, exit.Wrap(exit.BadOptionValue, err)
		}
		f = filter.New(
			filter.WithSizeRange(cfg.MinSize, cfg.MaxSize),
			filter.WithPattern(cfg.Pattern),
			filter.WithExclude(globs...),
		)
	}

	var stats types.ScanStats
	coll := NewCollector(cfg.Top)

	w := walker.New(cfg.Root, walker.Options{
		Recursive:      cfg.Recursive,
		FollowSymlinks: cfg.FollowSymlinks,
		Skip: func(rel string, _ fs.DirEntry) bool {
			return f.Excluded(rel)
		},
		OnError: func(path string, err error) {
			stats.Skipped++
			logger.Debug("skipping unreadable directory", "path", path, "err", err)
		},
	})

	logger.Debug("scan started",
		"root", cfg.Root,
		"recursive", cfg.Recursive,
		"top", cfg.Top,
	)

	for w.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e := w.Entry()
		if e.IsDir() {
			continue
		}

		info, err := e.Stat()
		if err != nil {
			stats.Skipped++
			logger.Debug("skipping entry", "path", e.Path, "err", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		stats.FilesFound++

		size := uint64(info.Size())
		if f.Accept(e.Path, size, coll) {
			coll.Insert(types.FileCandidate{Path: e.Path, Size: size})
		}
	}
	if err := w.Err(); err != nil {
		return nil, exit.Wrap(exit.FileOpenFailed, err)
	}

	stats.DirsScanned = w.DirsRead()
	stats.Elapsed = time.Since(start)

	logger.Debug("scan finished",
		"root", cfg.Root,
		"files", stats.FilesFound,
		"skipped", stats.Skipped,
		"ranked", coll.Len(),
		"elapsed", stats.Elapsed,
	)

	return &Result{
		Root:    cfg.Root,
		Entries: coll.Entries(),
		Stats:   stats,
	}, nil
}
