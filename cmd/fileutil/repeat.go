package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
	"github.com/jamesainslie/fileutil/pkg/fileutil/history"
	"github.com/jamesainslie/fileutil/pkg/fileutil/repeat"
)

type repeatFlags struct {
	in       string
	out      string
	count    int
	progress bool
}

func (a *app) newRepeatCmd() *cobra.Command {
	var f repeatFlags

	cmd := &cobra.Command{
		Use:   "repeat --in <path> --count <N> --out <path>",
		Short: "Write N copies of a file into a new file",
		Long: `Repeat writes the byte-for-byte content of --in exactly --count times,
back to back, into --out. An existing output file is replaced.

--times is accepted as an alias of --count.`,
		Args: rejectArgs(exit.InvalidArgumentSyntax, "unexpected argument"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRepeat(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.in, "in", "i", "", "file to copy (required)")
	flags.IntVarP(&f.count, "count", "t", 0, "number of copies, at least 1 (required)")
	flags.StringVarP(&f.out, "out", "o", "", "file to write (required)")
	flags.BoolVarP(&f.progress, "progress", "P", false, "show a progress bar on stderr")
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "times" {
			name = "count"
		}
		return pflag.NormalizedName(name)
	})

	return cmd
}

func (a *app) runRepeat(cmd *cobra.Command, f repeatFlags) error {
	var missing exit.Errors
	for _, name := range []string{"in", "count", "out"} {
		if !cmd.Flags().Changed(name) {
			missing.Add(exit.MissingRequiredOption, "missing required option --%s", name)
		}
	}
	if err := missing.Err(); err != nil {
		return err
	}

	opts := repeat.Options{
		In:    f.in,
		Out:   f.out,
		Count: f.count,
	}
	if f.progress && !a.quiet {
		opts.Progress = a.stderr
	}

	res, err := repeat.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, res.Message())
	a.printVerbose("wrote %d bytes", res.BytesWritten)

	a.record(history.OpRepeat, map[string]string{
		"in":    absPath(res.In),
		"out":   absPath(res.Out),
		"count": strconv.Itoa(res.Count),
	}, []history.FileRecord{{Path: absPath(res.Out), Size: res.BytesWritten}})

	return nil
}

// absPath returns the absolute form of path, or path itself when it cannot
// be resolved.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
