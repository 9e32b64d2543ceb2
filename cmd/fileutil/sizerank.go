package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fileutil/pkg/fileutil/config"
	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
	"github.com/jamesainslie/fileutil/pkg/fileutil/history"
	"github.com/jamesainslie/fileutil/pkg/fileutil/output"
	"github.com/jamesainslie/fileutil/pkg/fileutil/ranker"
	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

type sizeRankFlags struct {
	dir     string
	minSize string
	maxSize string
	pattern string
	out     string
}

func (a *app) newSizeRankCmd() *cobra.Command {
	var f sizeRankFlags

	cmd := &cobra.Command{
		Use:   "sizerank [flags]",
		Short: "List the largest files in a directory",
		Long: `Sizerank lists the --top largest regular files below --dir whose size lies
in [--minsize, --maxsize] and whose base name fully matches --pattern.

Sizes accept plain byte counts or units such as 10MB or 4KiB. With --out the
ranking is also written to a report file, preceded by the parameters used.

Defaults for --top, --recursive, --followdirsymlinks, --exclude and --format
can be set in the config file (sizerank.*) or the environment
(FILEUTIL_SIZERANK_*).`,
		Example: `  fileutil sizerank
  fileutil sizerank --dir /var/log --recursive --top 20
  fileutil sizerank -r --minsize 3 --maxsize 7 --pattern '_[0-9]+byte'
  fileutil sizerank -r --exclude node_modules --exclude '*.tmp' --format json`,
		Args: rejectArgs(exit.InvalidArgumentSyntax, "unexpected argument"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSizeRank(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.dir, "dir", "d", "", "directory to scan (default: current directory)")
	flags.BoolP("recursive", "r", false, "scan all subdirectories")
	flags.IntP("top", "n", config.DefaultTop, "number of files to list")
	flags.StringVar(&f.minSize, "minsize", "", "minimum file size in bytes (default 0)")
	flags.StringVar(&f.maxSize, "maxsize", "", "maximum file size in bytes (default unbounded)")
	flags.StringVarP(&f.pattern, "pattern", "p", "", "regular expression the whole file name must match")
	flags.BoolP("followdirsymlinks", "L", false, "descend into symlinked directories when recursive")
	flags.StringVarP(&f.out, "out", "o", "", "also write a report to this file")
	flags.StringSliceP("exclude", "e", nil, "glob of paths to skip, relative to --dir (repeatable)")
	flags.StringP("format", "f", config.DefaultFormat,
		"output format: "+strings.Join(output.Available(), ", "))

	return cmd
}

func (a *app) runSizeRank(cmd *cobra.Command, f sizeRankFlags) error {
	if err := a.bind(cmd.Flags(), map[string]string{
		config.KeySizeRankTop:            "top",
		config.KeySizeRankRecursive:      "recursive",
		config.KeySizeRankFollowSymlinks: "followdirsymlinks",
		config.KeySizeRankExclude:        "exclude",
		config.KeySizeRankFormat:         "format",
	}); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return exit.Wrap(exit.BadFile, err)
	}
	rc := cfg.SizeRank

	var errs exit.Errors

	scan, err := ranker.NewScanConfig(ranker.Options{
		Root:           f.dir,
		Recursive:      rc.Recursive,
		FollowSymlinks: rc.FollowSymlinks,
		MinSize:        f.minSize,
		MaxSize:        f.maxSize,
		Pattern:        f.pattern,
		Top:            rc.Top,
		Exclude:        rc.Exclude,
		Out:            f.out,
	})
	errs.Merge(err)

	formatter, err := output.Get(rc.Format)
	if err != nil {
		errs.Add(exit.BadOptionValue, "invalid --format %q (available: %s)",
			rc.Format, strings.Join(output.Available(), ", "))
	}

	if err := errs.Err(); err != nil {
		return err
	}

	res, err := ranker.Rank(cmd.Context(), scan)
	if err != nil {
		return err
	}
	result := output.NewResult(scan, res)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	if _, err := buf.WriteTo(a.stdout); err != nil {
		return exit.Wrap(exit.BadFile, fmt.Errorf("writing output: %w", err))
	}

	if scan.Out != "" {
		if err := output.WriteReport(scan.Out, result); err != nil {
			return err
		}
		a.printVerbose("report written to %s", scan.Out)
	}

	a.printVerbose("scanned %d files in %d directories (%d skipped) in %s",
		res.Stats.FilesFound, res.Stats.DirsScanned, res.Stats.Skipped, res.Stats.Elapsed)

	a.recordRanking(scan, result)
	return nil
}

func (a *app) recordRanking(scan *ranker.ScanConfig, result *output.Result) {
	params := map[string]string{
		"dir":       absPath(scan.Root),
		"recursive": strconv.FormatBool(scan.Recursive),
		"top":       strconv.Itoa(scan.Top),
		"minsize":   strconv.FormatUint(scan.MinSize, 10),
	}
	if scan.MaxSize != types.Unbounded {
		params["maxsize"] = strconv.FormatUint(scan.MaxSize, 10)
	}
	if scan.PatternExpr != "" {
		params["pattern"] = scan.PatternExpr
	}
	if scan.FollowSymlinks {
		params["followdirsymlinks"] = "true"
	}
	if len(scan.Excludes) > 0 {
		params["exclude"] = strings.Join(scan.Excludes, ",")
	}
	if scan.Out != "" {
		params["out"] = absPath(scan.Out)
	}

	files := make([]history.FileRecord, len(result.Entries))
	for i, e := range result.Entries {
		files[i] = history.FileRecord{Path: absPath(e.Path), Size: e.Size}
	}

	a.record(history.OpSizeRank, params, files)
}
