package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Viper keys shared by the configuration file, environment and flags.
const (
	KeySizeRankTop            = "sizerank.top"
	KeySizeRankRecursive      = "sizerank.recursive"
	KeySizeRankFollowSymlinks = "sizerank.follow_symlinks"
	KeySizeRankFormat         = "sizerank.format"
	KeySizeRankExclude        = "sizerank.exclude"
	KeyHistoryEnabled         = "history.enabled"
	KeyHistoryPath            = "history.path"
	KeyHistoryRetentionDays   = "history.retention_days"
	KeyLoggingLevel           = "logging.level"
	KeyLoggingPath            = "logging.path"
	KeyLoggingComponents      = "logging.components"
)

// SizeRankConfig holds sizerank defaults that flags override.
type SizeRankConfig struct {
	Top            int      `mapstructure:"top" yaml:"top" toml:"top"`
	Recursive      bool     `mapstructure:"recursive" yaml:"recursive" toml:"recursive"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks" yaml:"follow_symlinks" toml:"follow_symlinks"`
	Format         string   `mapstructure:"format" yaml:"format" toml:"format"`
	Exclude        []string `mapstructure:"exclude" yaml:"exclude" toml:"exclude"`
}

// HistoryConfig configures the operation history.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path" toml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days" toml:"retention_days"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level" toml:"level"`
	Path       string            `mapstructure:"path" yaml:"path" toml:"path"`
	Components map[string]string `mapstructure:"components" yaml:"components" toml:"components"`
}

// Config represents the application configuration.
type Config struct {
	SizeRank SizeRankConfig `mapstructure:"sizerank" yaml:"sizerank" toml:"sizerank"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history" toml:"history"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging" toml:"logging"`
}

// New returns a viper instance with defaults, environment binding and the
// configuration file loaded. An empty file searches the XDG config directory
// and tolerates a missing file; an explicit file must exist.
//
// Every invocation builds its own instance, so commands never share state
// through a process-wide registry.
func New(file string) (*viper.Viper, error) {
	v := viper.New()

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
		return v, nil
	}

	v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeySizeRankTop, DefaultTop)
	v.SetDefault(KeySizeRankRecursive, false)
	v.SetDefault(KeySizeRankFollowSymlinks, false)
	v.SetDefault(KeySizeRankFormat, DefaultFormat)
	v.SetDefault(KeySizeRankExclude, []string{})

	v.SetDefault(KeyHistoryEnabled, true)
	v.SetDefault(KeyHistoryPath, "")
	v.SetDefault(KeyHistoryRetentionDays, DefaultRetentionDays)

	v.SetDefault(KeyLoggingLevel, DefaultLogLevel)
	v.SetDefault(KeyLoggingPath, "")
	v.SetDefault(KeyLoggingComponents, map[string]string{})
}

// Load decodes v into a Config and resolves derived paths.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// A comma-separated environment value arrives as a single element.
	if len(cfg.SizeRank.Exclude) == 1 && strings.Contains(cfg.SizeRank.Exclude[0], ",") {
		cfg.SizeRank.Exclude = splitList(cfg.SizeRank.Exclude[0])
	}

	if cfg.History.Path == "" {
		cfg.History.Path = HistoryDir()
	}

	var err error
	if cfg.History.Path, err = ExpandPath(cfg.History.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ConfigDir returns $XDG_CONFIG_HOME/fileutil.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// DataDir returns $XDG_DATA_HOME/fileutil.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(xdg.DataHome, AppName)
}

// HistoryDir returns the default history directory.
func HistoryDir() string {
	return filepath.Join(DataDir(), "history")
}

// StateDir returns $XDG_STATE_HOME/fileutil, the home of log files.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(xdg.StateHome, AppName)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// WriteDefault writes a commented default configuration to path unless a
// file already exists there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("checking config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}

	content := fmt.Sprintf(`# fileutil configuration

# Defaults for the sizerank command; flags take precedence.
sizerank:
  top: %d
  recursive: false
  follow_symlinks: false
  # text, plain, pretty, json, jsonl, yaml, csv, tsv, markdown, paths, null
  format: %s
  # Glob patterns matched against paths relative to the scanned directory
  exclude: []

# Record of completed repeat and sizerank runs
history:
  enabled: true
  # Empty means $XDG_DATA_HOME/fileutil/history
  path: ""
  retention_days: %d

logging:
  # Log level for the log file: debug, info, warn, error
  level: %s
  # Log file path; empty disables the log file
  path: ""
  # Per-component levels, e.g. ranker: debug
  components: {}
`, DefaultTop, DefaultFormat, DefaultRetentionDays, DefaultLogLevel)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("writing default config: %w", err)
	}
	return true, nil
}
