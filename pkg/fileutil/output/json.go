package output

import (
	"bytes"
	"encoding/json"
)

// document is the structure shared by the JSON and YAML formatters.
type document struct {
	Files []Entry   `json:"files" yaml:"files"`
	Stats docStats  `json:"stats" yaml:"stats"`
	Query docQuery  `json:"query" yaml:"query"`
	Meta  docTotals `json:"meta" yaml:"meta"`
}

type docStats struct {
	DirsScanned int64  `json:"dirs_scanned" yaml:"dirs_scanned"`
	FilesFound  int64  `json:"files_found" yaml:"files_found"`
	Skipped     int64  `json:"skipped" yaml:"skipped"`
	Elapsed     string `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
}

type docQuery struct {
	Root      string `json:"root" yaml:"root"`
	Recursive bool   `json:"recursive" yaml:"recursive"`
	MinSize   uint64 `json:"min_size" yaml:"min_size"`
	MaxSize   uint64 `json:"max_size" yaml:"max_size"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Top       int    `json:"top" yaml:"top"`
}

type docTotals struct {
	TotalFiles int    `json:"total_files" yaml:"total_files"`
	TotalSize  uint64 `json:"total_size" yaml:"total_size"`
}

func buildDocument(r *Result) document {
	files := r.Entries
	if files == nil {
		files = []Entry{}
	}

	var elapsed string
	if r.Stats.Elapsed > 0 {
		elapsed = r.Stats.Elapsed.String()
	}

	return document{
		Files: files,
		Stats: docStats{
			DirsScanned: r.Stats.DirsScanned,
			FilesFound:  r.Stats.FilesFound,
			Skipped:     r.Stats.Skipped,
			Elapsed:     elapsed,
		},
		Query: docQuery{
			Root:      r.Root,
			Recursive: r.Recursive,
			MinSize:   r.MinSize,
			MaxSize:   r.MaxSize,
			Pattern:   r.Pattern,
			Top:       r.Top,
		},
		Meta: docTotals{
			TotalFiles: len(r.Entries),
			TotalSize:  r.TotalSize(),
		},
	}
}

// JSONFormatter formats output as a single indented JSON object with files,
// stats, query and meta sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per ranked file, suitable
// for streaming into tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, e := range r.Entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
