// Package history records completed fileutil operations in a Badger
// database, one JSON value per invocation. Only the outcome is stored; a
// scan's directory contents are never indexed.
package history

import "time"

// Operation names the command that produced an entry.
type Operation string

const (
	// OpRepeat is a repeat invocation.
	OpRepeat Operation = "repeat"
	// OpSizeRank is a sizerank invocation.
	OpSizeRank Operation = "sizerank"
)

// Entry is a single recorded operation.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Operation Operation         `json:"operation"`
	Params    map[string]string `json:"params,omitempty"`
	Files     []FileRecord      `json:"files"`
	Summary   Summary           `json:"summary"`
}

// FileRecord is a file involved in an operation: a ranked file for
// sizerank, the written output for repeat.
type FileRecord struct {
	Path string `json:"path"`
	Size uint64 `json:"size"`
}

// Summary totals the files of an entry.
type Summary struct {
	TotalFiles int64  `json:"total_files"`
	TotalBytes uint64 `json:"total_bytes"`
}
