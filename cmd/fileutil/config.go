package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fileutil/pkg/fileutil/config"
	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage fileutil configuration.

Configuration is read from $XDG_CONFIG_HOME/fileutil/config.yaml, or the file
given with --config. Environment variables override the file using the
FILEUTIL_ prefix:
  FILEUTIL_SIZERANK_TOP=20
  FILEUTIL_SIZERANK_EXCLUDE=node_modules,.git
  FILEUTIL_HISTORY_ENABLED=false`,
		Args: rejectArgs(exit.InvalidAction, "unknown command"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  rejectArgs(exit.InvalidArgumentSyntax, "unexpected argument"),
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runConfigShow(format)
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "yaml",
		"output encoding ("+strings.Join(config.Encodings, ", ")+")")

	cmd.AddCommand(
		show,
		&cobra.Command{
			Use:   "init",
			Short: "Create the default configuration file",
			Args:  rejectArgs(exit.InvalidArgumentSyntax, "unexpected argument"),
			RunE: func(_ *cobra.Command, _ []string) error {
				return a.runConfigInit()
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration file path",
			Args:  rejectArgs(exit.InvalidArgumentSyntax, "unexpected argument"),
			RunE: func(_ *cobra.Command, _ []string) error {
				return a.runConfigPath()
			},
		},
	)

	return cmd
}

func (a *app) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.ConfigPath()
}

func (a *app) runConfigShow(format string) error {
	data, err := config.Encode(a.cfg, format)
	if err != nil {
		if errors.Is(err, config.ErrUnknownEncoding) {
			return exit.Wrap(exit.BadOptionValue, err)
		}
		return fmt.Errorf("encoding configuration: %w", err)
	}

	if used := a.v.ConfigFileUsed(); used != "" {
		a.printInfo("# config file: %s", used)
	} else {
		a.printInfo("# config file: none, using defaults")
	}

	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			a.printInfo("# env: %s", kv)
		}
	}

	_, err = a.stdout.Write(data)
	return err
}

func (a *app) runConfigInit() error {
	path := a.configPath()

	created, err := config.WriteDefault(path)
	if err != nil {
		return exit.Wrap(exit.FileOpenFailed, err)
	}
	if !created {
		a.printInfo("Config file already exists: %s", path)
		return nil
	}
	a.printInfo("Created default config file: %s", path)
	return nil
}

func (a *app) runConfigPath() error {
	path := a.configPath()
	fmt.Fprintln(a.stdout, path)

	if _, err := os.Stat(path); err == nil {
		a.printVerbose("file exists")
	} else {
		a.printVerbose("file does not exist, defaults apply")
	}
	return nil
}
