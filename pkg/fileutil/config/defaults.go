// Package config provides configuration management for fileutil.
package config

// Default configuration values.
const (
	// AppName names the XDG subdirectories and the environment prefix.
	AppName = "fileutil"

	// EnvPrefix prefixes environment overrides, e.g. FILEUTIL_SIZERANK_TOP.
	EnvPrefix = "FILEUTIL"

	// ConfigFileName is the base name of the configuration file.
	ConfigFileName = "config.yaml"

	// DefaultTop is the number of files sizerank reports.
	DefaultTop = 10

	// DefaultFormat is the sizerank output format.
	DefaultFormat = "text"

	// DefaultRetentionDays is how long history entries are kept.
	DefaultRetentionDays = 30

	// DefaultLogLevel is the level of the log file.
	DefaultLogLevel = "info"
)
