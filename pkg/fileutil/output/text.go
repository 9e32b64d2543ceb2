package output

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
)

// DefaultFormat is the formatter used when none is selected.
const DefaultFormat = "text"

// ErrUnknownFormat is returned for a formatter name that is not registered.
var ErrUnknownFormat = errors.New("unknown output format")

// noMatches is printed in place of an empty ranking.
const noMatches = "No matches\n"

// reportRule separates the report header from the ranking.
const reportRule = "----------\n"

// TextFormatter prints one numbered line per file:
//
//	1. (1.50 MB) sub/dir/file.bin
//
// Paths are relative to the scan root.
type TextFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TextFormatter) Format(w *bytes.Buffer, r *Result) error {
	if len(r.Entries) == 0 {
		w.WriteString(noMatches)
		return nil
	}
	for _, e := range r.Entries {
		fmt.Fprintf(w, "%d. (%s) %s\n", e.Rank, e.SizeHuman, e.Rel)
	}
	return nil
}

func init() {
	Register("text", func() Formatter {
		return &TextFormatter{}
	})
}

// Ensure TextFormatter implements Formatter.
var _ Formatter = (*TextFormatter)(nil)

// FormatReport writes the side-file report: a header describing the request,
// a rule, then the text ranking.
func FormatReport(w *bytes.Buffer, r *Result) error {
	fmt.Fprintf(w, "top %d largest files\n", r.Top)
	fmt.Fprintf(w, "in range [%d, %d] bytes\n", r.MinSize, r.MaxSize)
	fmt.Fprintf(w, "in directory \"%s\"", r.Root)
	if r.Recursive {
		w.WriteString(" and all subdirectories")
	}

	pattern := r.Pattern
	if pattern == "" {
		pattern = ".*"
	}
	fmt.Fprintf(w, "\nmatching regex /^%s$/\n", pattern)
	w.WriteString(reportRule)

	return (&TextFormatter{}).Format(w, r)
}

// WriteReport writes the report for r to path, replacing any existing file.
// A file that cannot be created yields exit.FileOpenFailed, a failed write
// exit.BadFile.
func WriteReport(path string, r *Result) error {
	var buf bytes.Buffer
	if err := FormatReport(&buf, r); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return exit.Wrap(exit.FileOpenFailed, fmt.Errorf("creating report: %w", err))
	}

	if _, err := buf.WriteTo(file); err != nil {
		_ = file.Close()
		return exit.Wrap(exit.BadFile, fmt.Errorf("writing report %s: %w", path, err))
	}
	if err := file.Close(); err != nil {
		return exit.Wrap(exit.BadFile, fmt.Errorf("closing report %s: %w", path, err))
	}
	return nil
}
