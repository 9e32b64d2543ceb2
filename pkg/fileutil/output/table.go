package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// TSVFormatter formats output as tab-separated values with a header row.
// Sizes are exact byte counts.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString("RANK\tSIZE\tPATH\n")
	for _, e := range r.Entries {
		fmt.Fprintf(w, "%d\t%d\t%s\n", e.Rank, e.Size, e.Rel)
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats output as RFC 4180 comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"rank", "size", "size_human", "path"}); err != nil {
		return err
	}
	for _, e := range r.Entries {
		record := []string{
			strconv.Itoa(e.Rank),
			strconv.FormatUint(e.Size, 10),
			e.SizeHuman,
			e.Rel,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats output as a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString("| # | SIZE | PATH |\n")
	w.WriteString("|--:|-----:|------|\n")
	for _, e := range r.Entries {
		fmt.Fprintf(w, "| %d | %s | %s |\n", e.Rank, e.SizeHuman, escapeMarkdownPipe(e.Rel))
	}
	return nil
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
