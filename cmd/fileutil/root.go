package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jamesainslie/fileutil/pkg/fileutil/config"
	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
	"github.com/jamesainslie/fileutil/pkg/fileutil/logging"
)

// app is the state of a single invocation. Nothing here outlives Execute.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfgFile string
	verbose bool
	quiet   bool

	v   *viper.Viper
	cfg *config.Config
}

// newRootCmd builds the command tree for one invocation.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "fileutil",
		Short: "Repeat files and rank the largest files in a directory",
		Long: `fileutil offers two file operations:

  repeat     write N back-to-back copies of a file into a new file
  sizerank   list the N largest files of a directory tree

Examples:
  fileutil repeat --in seed.bin --count 4 --out big.bin
  fileutil sizerank --dir ~/Downloads --top 5
  fileutil sizerank -r --minsize 10MB --pattern '.*\.iso' --out report.txt
  fileutil history                # recent operations
  fileutil config show            # effective configuration`,
		Args:              rejectArgs(exit.InvalidAction, "unknown command"),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(flagError)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/fileutil/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug output on stderr")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "only print results and errors")

	root.AddCommand(
		a.newRepeatCmd(),
		a.newSizeRankCmd(),
		a.newHistoryCmd(),
		a.newConfigCmd(),
		a.newVersionCmd(),
	)

	return root
}

// Execute runs the command line args and prints any error to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if cerr := logging.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(stderr, "fileutil: %s\n", line)
		}
	}
	return err
}

// setup loads the configuration and starts logging before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return exit.Wrap(exit.BadFile, err)
	}
	a.v = v

	cfg, err := config.Load(v)
	if err != nil {
		return exit.Wrap(exit.BadFile, err)
	}
	a.cfg = cfg

	consoleLevel := "warn"
	switch {
	case a.quiet:
		consoleLevel = "error"
	case a.verbose:
		consoleLevel = "debug"
	}

	logging.SetConsoleWriter(a.stderr)
	if err := logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		Components:   cfg.Logging.Components,
		ConsoleLevel: consoleLevel,
	}); err != nil {
		return exit.Wrap(exit.BadOptionValue, err)
	}

	logging.Get("cli").Debug("command started",
		"command", cmd.CommandPath(),
		"config", v.ConfigFileUsed(),
	)
	return nil
}

// flagError categorizes flag parse failures: a value the flag cannot hold is
// BadOptionValue, anything else (unknown flag, missing value, bad syntax) is
// InvalidArgumentSyntax.
func flagError(_ *cobra.Command, err error) error {
	var invalid *pflag.InvalidValueError
	if errors.As(err, &invalid) {
		return exit.Wrap(exit.BadOptionValue, err)
	}
	return exit.Wrap(exit.InvalidArgumentSyntax, err)
}

// bind makes the named flags override the given configuration keys.
func (a *app) bind(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// rejectArgs returns a cobra.PositionalArgs that fails with code when any
// positional argument is given.
func rejectArgs(code exit.Code, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return exit.New(code, "%s %q for %q", what, args[0], cmd.CommandPath())
		}
		return nil
	}
}

// exactArgs is cobra.ExactArgs with an InvalidArgumentSyntax category.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return exit.Wrap(exit.InvalidArgumentSyntax, err)
		}
		return nil
	}
}

// printVerbose prints a message if verbose mode is enabled.
func (a *app) printVerbose(format string, args ...any) {
	if a.verbose && !a.quiet {
		fmt.Fprintf(a.stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func (a *app) printInfo(format string, args ...any) {
	if !a.quiet {
		fmt.Fprintf(a.stdout, format+"\n", args...)
	}
}
