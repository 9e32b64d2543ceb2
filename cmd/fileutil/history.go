package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/fileutil/pkg/fileutil/config"
	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
	"github.com/jamesainslie/fileutil/pkg/fileutil/history"
	"github.com/jamesainslie/fileutil/pkg/fileutil/logging"
	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

// showFileLimit caps the files listed by history show.
const showFileLimit = 50

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "View operation history",
		Long: `View the history of repeat and sizerank operations.

Each successful run is recorded in the history directory
(default: $XDG_DATA_HOME/fileutil/history) unless history.enabled is false.`,
		Args: rejectArgs(exit.InvalidAction, "unknown command"),
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runHistory(limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of entries to show (0 for all)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show details of an operation",
			Long:  `Display an operation by its ID or a unique prefix of it.`,
			Args:  exactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return a.runHistoryShow(args[0])
			},
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove old history entries",
			Long:  `Remove history entries older than history.retention_days.`,
			Args:  rejectArgs(exit.InvalidArgumentSyntax, "unexpected argument"),
			RunE: func(_ *cobra.Command, _ []string) error {
				return a.runHistoryClean()
			},
		},
	)

	return cmd
}

// withStore opens the history store for the duration of fn.
func (a *app) withStore(fn func(*history.Store) error) error {
	s, err := history.Open(a.cfg.History.Path)
	if err != nil {
		return exit.Wrap(exit.FileOpenFailed, fmt.Errorf("history: %w", err))
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logging.Get("history").Warn("closing history store", "err", cerr)
		}
	}()
	return fn(s)
}

// record stores a history entry. Failures are logged, never returned: the
// operation itself already succeeded.
func (a *app) record(op history.Operation, params map[string]string, files []history.FileRecord) {
	if !a.cfg.History.Enabled {
		return
	}

	err := a.withStore(func(s *history.Store) error {
		entry, err := s.Record(op, params, files)
		if err != nil {
			return err
		}
		a.printVerbose("recorded history entry %s", entry.ID)
		return nil
	})
	if err != nil {
		logging.Get("history").Warn("could not record history", "err", err)
	}
}

func (a *app) runHistory(limit int) error {
	return a.withStore(func(s *history.Store) error {
		return a.listHistory(s, limit)
	})
}

func (a *app) listHistory(s *history.Store, limit int) error {
	entries, err := s.List(limit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(entries) == 0 {
		a.printInfo("No history entries found.")
		return nil
	}

	total, err := s.Count()
	if err != nil {
		return fmt.Errorf("counting history: %w", err)
	}

	w := a.stdout
	fmt.Fprintf(w, "%-36s  %-8s  %-6s  %-12s  %s\n", "ID", "TYPE", "FILES", "SIZE", "WHEN")
	fmt.Fprintln(w, strings.Repeat("-", 84))
	for _, e := range entries {
		fmt.Fprintf(w, "%-36s  %-8s  %-6s  %-12s  %s\n",
			e.ID,
			e.Operation,
			humanize.Comma(e.Summary.TotalFiles),
			types.FormatSize(e.Summary.TotalBytes),
			humanize.Time(e.Timestamp),
		)
	}
	fmt.Fprintln(w, strings.Repeat("-", 84))

	a.printInfo("Showing %d of %d entries. Use 'fileutil history show <id>' for details.", len(entries), total)
	return nil
}

func (a *app) runHistoryShow(id string) error {
	return a.withStore(func(s *history.Store) error {
		return a.showHistory(s, id)
	})
}

func (a *app) showHistory(s *history.Store, id string) error {
	entry, err := s.Get(id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) || errors.Is(err, history.ErrAmbiguous) {
			return exit.Wrap(exit.BadOptionValue, err)
		}
		return fmt.Errorf("reading history: %w", err)
	}

	w := a.stdout
	fmt.Fprintf(w, "ID:         %s\n", entry.ID)
	fmt.Fprintf(w, "Timestamp:  %s (%s)\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"), humanize.Time(entry.Timestamp))
	fmt.Fprintf(w, "Operation:  %s\n", entry.Operation)
	fmt.Fprintf(w, "Files:      %s\n", humanize.Comma(entry.Summary.TotalFiles))
	fmt.Fprintf(w, "Total size: %s\n", types.FormatSize(entry.Summary.TotalBytes))

	if len(entry.Params) > 0 {
		fmt.Fprintln(w, "\nParameters:")
		for _, k := range slices.Sorted(maps.Keys(entry.Params)) {
			fmt.Fprintf(w, "  %-18s %s\n", k+":", entry.Params[k])
		}
	}

	if len(entry.Files) > 0 {
		fmt.Fprintln(w, "\nFiles:")
		n := min(len(entry.Files), showFileLimit)
		for i, f := range entry.Files[:n] {
			fmt.Fprintf(w, "  %d. (%s) %s\n", i+1, types.FormatSize(f.Size), f.Path)
		}
		if len(entry.Files) > n {
			fmt.Fprintf(w, "  ... and %d more files\n", len(entry.Files)-n)
		}
	}
	return nil
}

func (a *app) runHistoryClean() error {
	days := a.cfg.History.RetentionDays
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	var removed int
	err := a.withStore(func(s *history.Store) error {
		var err error
		removed, err = s.Cleanup(days)
		return err
	})
	if err != nil {
		return fmt.Errorf("cleaning history: %w", err)
	}

	a.printInfo("Removed %d history %s older than %d days.", removed, plural(removed, "entry", "entries"), days)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
