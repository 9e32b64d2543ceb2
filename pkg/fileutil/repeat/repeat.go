// Package repeat writes a file made of N back-to-back copies of another file.
package repeat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
	"github.com/jamesainslie/fileutil/pkg/fileutil/logging"
	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

// MaxBufferSize caps the copy buffer. Smaller inputs use a buffer of their
// own size.
const MaxBufferSize = 2 * types.MiB

// ErrInputChanged is returned when the input shrinks while it is copied.
var ErrInputChanged = errors.New("input changed during copy")

// Options describe a repeat request.
type Options struct {
	// In is the file to copy.
	In string

	// Out is the file to create. An existing file is truncated.
	Out string

	// Count is the number of copies to write. It must be at least 1.
	Count int

	// Progress receives a byte progress bar when non-nil.
	Progress io.Writer
}

// Result describes a completed repeat.
type Result struct {
	In           string `json:"in"`
	Out          string `json:"out"`
	Count        int    `json:"count"`
	InputSize    uint64 `json:"input_size"`
	BytesWritten uint64 `json:"bytes_written"`
}

// Message returns the confirmation printed after a successful repeat.
func (r *Result) Message() string {
	unit := "times"
	if r.Count == 1 {
		unit = "time"
	}
	return fmt.Sprintf("repeated %s %d %s into %s", r.In, r.Count, unit, r.Out)
}

// Validate checks opts without modifying the filesystem. Every violated
// constraint is reported in the returned exit.Errors.
func Validate(opts Options) error {
	var errs exit.Errors

	var inInfo fs.FileInfo
	if opts.In == "" {
		errs.Add(exit.MissingRequiredOption, "missing required option --in")
	} else {
		info, err := os.Stat(opts.In)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			errs.Add(exit.FileNotFound, "input file %q does not exist", opts.In)
		case err != nil:
			errs.Add(exit.FileOpenFailed, "cannot access input file %q: %v", opts.In, err)
		case !info.Mode().IsRegular():
			errs.Add(exit.BadOptionValue, "input %q is not a regular file", opts.In)
		default:
			inInfo = info
		}
	}

	if opts.Out == "" {
		errs.Add(exit.MissingRequiredOption, "missing required option --out")
	} else if outInfo, err := os.Stat(opts.Out); err == nil {
		switch {
		case outInfo.IsDir():
			errs.Add(exit.BadOptionValue, "output %q is a directory", opts.Out)
		case inInfo != nil && os.SameFile(inInfo, outInfo):
			errs.Add(exit.BadOptionValue, "output %q is the input file", opts.Out)
		}
	}

	if opts.Count < 1 {
		errs.Add(exit.BadOptionValue, "--count must be at least 1, got %d", opts.Count)
	}

	return errs.Err()
}

// Run validates opts and writes opts.Count copies of opts.In to opts.Out.
// If copying fails after the output was created, the partial output is
// removed. Cancellation of ctx is checked between chunks.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}

	logger := logging.Get("repeat")

	in, err := os.Open(opts.In)
	if err != nil {
		return nil, exit.Wrap(exit.FileOpenFailed, fmt.Errorf("opening input: %w", err))
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, exit.Wrap(exit.BadFile, fmt.Errorf("reading input size: %w", err))
	}
	size := uint64(info.Size())

	out, err := os.Create(opts.Out)
	if err != nil {
		return nil, exit.Wrap(exit.FileOpenFailed, fmt.Errorf("creating output: %w", err))
	}

	logger.Debug("repeat started", "in", opts.In, "out", opts.Out, "count", opts.Count, "size", size)

	var (
		dst io.Writer = out
		bar *progressbar.ProgressBar
	)
	if opts.Progress != nil {
		bar = newProgressBar(opts.Progress, size, opts.Count)
		dst = io.MultiWriter(out, bar)
	}

	written, err := copyN(ctx, dst, in, size, opts.Count)
	if bar != nil {
		if err == nil {
			_ = bar.Finish()
		} else {
			_ = bar.Exit()
		}
	}
	if cerr := out.Close(); cerr != nil && err == nil {
		err = exit.Wrap(exit.BadFile, fmt.Errorf("closing output: %w", cerr))
	}
	if err != nil {
		if rerr := os.Remove(opts.Out); rerr != nil {
			logger.Warn("could not remove partial output", "path", opts.Out, "err", rerr)
		}
		return nil, err
	}

	logger.Debug("repeat finished", "out", opts.Out, "bytes", written)

	return &Result{
		In:           opts.In,
		Out:          opts.Out,
		Count:        opts.Count,
		InputSize:    size,
		BytesWritten: written,
	}, nil
}

// newProgressBar sizes the bar to the whole output, falling back to a
// spinner when that total does not fit an int64.
func newProgressBar(w io.Writer, size uint64, count int) *progressbar.ProgressBar {
	total := int64(-1)
	if size <= math.MaxInt64/uint64(count) {
		total = int64(size * uint64(count))
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Repeating"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
	// A copy finished by its first write would otherwise never be drawn.
	_ = bar.RenderBlank()
	return bar
}

// copyN writes count copies of the first size bytes of in to out.
func copyN(ctx context.Context, out io.Writer, in io.ReadSeeker, size uint64, count int) (uint64, error) {
	if size == 0 {
		return 0, nil
	}

	buf := make([]byte, min(MaxBufferSize, size))
	var written uint64

	for i := range count {
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return written, exit.Wrap(exit.BadFile, fmt.Errorf("rewinding input: %w", err))
		}

		remaining := size
		for remaining > 0 {
			if err := ctx.Err(); err != nil {
				return written, err
			}

			chunk := buf[:min(uint64(len(buf)), remaining)]
			if _, err := io.ReadFull(in, chunk); err != nil {
				if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
					err = ErrInputChanged
				}
				return written, exit.Wrap(exit.BadFile, fmt.Errorf("reading copy %d: %w", i+1, err))
			}
			n, err := out.Write(chunk)
			written += uint64(n)
			if err != nil {
				return written, exit.Wrap(exit.BadFile, fmt.Errorf("writing copy %d: %w", i+1, err))
			}
			remaining -= uint64(len(chunk))
		}
	}

	return written, nil
}
