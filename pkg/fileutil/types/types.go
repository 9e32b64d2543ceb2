// Package types provides core data types for the fileutil tool.
// It includes the candidate and ranking structures shared by the scanner
// packages, along with utility functions for parsing and formatting file sizes.
package types

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary units.
const (
	KiB uint64 = 1024
	MiB uint64 = 1024 * KiB
	GiB uint64 = 1024 * MiB
	TiB uint64 = 1024 * GiB
)

// Unbounded is the largest representable size. It is the default upper bound
// of a size range.
const Unbounded uint64 = math.MaxUint64

// FileCandidate is a file considered for ranking during a scan.
type FileCandidate struct {
	// Path is the path of the file, rooted at the scan root as given.
	Path string `json:"path" yaml:"path"`

	// Size is the file size in bytes.
	Size uint64 `json:"size" yaml:"size"`
}

// HumanSize returns the candidate size formatted with FormatSize.
func (c FileCandidate) HumanSize() string {
	return FormatSize(c.Size)
}

// ScanStats holds counters collected while walking a directory tree.
type ScanStats struct {
	// DirsScanned is the number of directories read.
	DirsScanned int64 `json:"dirs_scanned" yaml:"dirs_scanned"`

	// FilesFound is the number of files whose size could be determined.
	FilesFound int64 `json:"files_found" yaml:"files_found"`

	// Skipped is the number of entries dropped because of filesystem errors.
	Skipped int64 `json:"skipped" yaml:"skipped"`

	// Elapsed is the wall time of the scan.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ParseSize parses a byte count. Plain integers are taken as bytes; unit
// suffixes follow go-humanize, so "10KB" is 10000 bytes and "10KiB" is 10240.
// Leading and trailing whitespace is ignored.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return n, nil
}

var sizeUnits = [...]string{"B", "KB", "MB", "GB", "TB"}

// FormatSize converts a size in bytes to a human-readable string using
// 1024-based units from B to TB. Byte counts are printed without decimals,
// every larger unit with two.
//
// Examples:
//   - FormatSize(1023) returns "1023 B"
//   - FormatSize(1024) returns "1.00 KB"
//   - FormatSize(1536*1024) returns "1.50 MB"
func FormatSize(bytes uint64) string {
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%.0f %s", size, sizeUnits[unit])
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[unit])
}
