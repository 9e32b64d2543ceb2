// Package filter decides which files may enter a size ranking.
//
// A Filter combines an inclusive byte-size range, an anchored regular
// expression matched against the base file name, and optional exclude globs.
// Accept runs the checks cheapest first so the common rejection path never
// reaches the regular expression.
package filter

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/gobwas/glob"
	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

// Ranking is the view of a bounded ranking needed by the capacity check.
type Ranking interface {
	// Full reports whether the ranking holds as many entries as it may keep.
	Full() bool

	// Lowest returns the size of the lowest-ranked entry.
	Lowest() uint64
}

// Filter defines the criteria a candidate must meet to be ranked.
type Filter struct {
	// MinSize is the inclusive lower size bound in bytes.
	MinSize uint64

	// MaxSize is the inclusive upper size bound in bytes.
	MaxSize uint64

	// Pattern is matched against the whole base name. Nil matches anything.
	Pattern *regexp.Regexp

	// Exclude holds compiled globs matched against root-relative paths.
	Exclude []glob.Glob
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// New creates a new Filter with the given options.
// By default every size and every name is accepted.
func New(opts ...Option) *Filter {
	f := &Filter{
		MinSize: 0,
		MaxSize: types.Unbounded,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// WithSizeRange sets the inclusive size bounds.
func WithSizeRange(minSize, maxSize uint64) Option {
	return func(f *Filter) {
		f.MinSize = minSize
		f.MaxSize = maxSize
	}
}

// WithPattern sets the compiled name pattern.
func WithPattern(re *regexp.Regexp) Option {
	return func(f *Filter) {
		f.Pattern = re
	}
}

// WithExclude sets the compiled exclude globs.
func WithExclude(globs ...glob.Glob) Option {
	return func(f *Filter) {
		f.Exclude = globs
	}
}

// CompilePattern compiles expr so that it must match an entire base name.
// An empty expression yields nil, which matches every name.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	// The bare expression must be valid on its own; "a)(b" would otherwise
	// compile once wrapped.
	if _, err := regexp.Compile(expr); err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", expr, err)
	}
	re, err := regexp.Compile(`^(?:` + closeQuote(expr) + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", expr, err)
	}
	return re, nil
}

// closeQuote terminates a trailing \Q literal run so that it cannot swallow
// the anchoring suffix.
func closeQuote(expr string) string {
	quoted := false
	for i := 0; i < len(expr); i++ {
		if expr[i] != '\\' || i+1 == len(expr) {
			continue
		}
		switch next := expr[i+1]; {
		case !quoted && next == 'Q':
			quoted = true
		case quoted && next == 'E':
			quoted = false
		case quoted:
			// Inside \Q...\E a backslash is literal.
			continue
		}
		i++
	}
	if quoted {
		return expr + `\E`
	}
	return expr
}

// CompileGlobs compiles exclude patterns using '/' as the separator.
func CompileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling exclude pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Accept reports whether a file of the given size at path may enter r.
// The checks run in order: size range, capacity of r, then the name pattern.
func (f *Filter) Accept(path string, size uint64, r Ranking) bool {
	if !f.InRange(size) {
		return false
	}
	if r != nil && r.Full() && size <= r.Lowest() {
		return false
	}
	return f.MatchName(filepath.Base(path))
}

// InRange reports whether size lies within [MinSize, MaxSize].
func (f *Filter) InRange(size uint64) bool {
	return size >= f.MinSize && size <= f.MaxSize
}

// MatchName reports whether the base name fully matches the pattern.
func (f *Filter) MatchName(name string) bool {
	return f.Pattern == nil || f.Pattern.MatchString(name)
}

// Excluded reports whether a root-relative path matches any exclude glob.
// Both the full relative path and its base name are tried.
func (f *Filter) Excluded(rel string) bool {
	if len(f.Exclude) == 0 {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, g := range f.Exclude {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}
