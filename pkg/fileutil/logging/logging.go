// Package logging provides component loggers for fileutil.
//
// Loggers obtained before Init write to io.Discard, so library packages can
// log freely without the caller having configured anything:
//
//	if err := logging.Init(logging.Config{Level: "info", ConsoleLevel: "debug"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("ranker")
//	logger.Debug("directory unreadable", "path", dir)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level (debug, info, warn, error).
	Level string

	// Path is the log file. Empty disables the file sink.
	Path string

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables stderr output at the given level.
	// Empty disables console output.
	ConsoleLevel string
}

// Logger wraps charmbracelet/log with component identification.
type Logger struct {
	file      *log.Logger
	console   *log.Logger
	component string
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LevelError, msg, args...)
}

// Component returns the name the logger was created for.
func (l *Logger) Component() string {
	return l.component
}

// With returns a new logger with additional key/value context.
func (l *Logger) With(args ...any) *Logger {
	nl := &Logger{
		file:      l.file.With(args...),
		component: l.component,
	}
	if l.console != nil {
		nl.console = l.console.With(args...)
	}
	return nl
}

func (l *Logger) log(level Level, msg string, args ...any) {
	logTo(l.file, level, msg, args...)
	if l.console != nil {
		logTo(l.console, level, msg, args...)
	}
}

func logTo(logger *log.Logger, level Level, msg string, args ...any) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	file        *os.File
	console     io.Writer
	level       Level
	components  map[string]Level
	loggers     map[string]*Logger

	consoleEnabled bool
	consoleLevel   Level
}

var globalState = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]Level),
	console:    os.Stderr,
}

// Init configures the logging system. Calling it again replaces the previous
// configuration and re-creates every logger handed out so far.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	var consoleLevel Level
	if cfg.ConsoleLevel != "" {
		consoleLevel, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	var file *os.File
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		file, err = os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.file != nil {
		_ = globalState.file.Close()
	}

	globalState.file = file
	globalState.level = level
	globalState.components = components
	globalState.consoleEnabled = cfg.ConsoleLevel != ""
	globalState.consoleLevel = consoleLevel
	globalState.initialized = true

	for component := range globalState.loggers {
		globalState.loggers[component] = createLogger(component)
	}

	return nil
}

// SetConsoleWriter redirects console output, which defaults to os.Stderr.
// It takes effect for loggers created or re-created afterwards.
func SetConsoleWriter(w io.Writer) {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()
	globalState.console = w
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *Logger {
	globalState.mu.RLock()
	if logger, ok := globalState.loggers[component]; ok {
		globalState.mu.RUnlock()
		return logger
	}
	globalState.mu.RUnlock()

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}

	logger := createLogger(component)
	globalState.loggers[component] = logger
	return logger
}

// createLogger must be called with globalState.mu held.
func createLogger(component string) *Logger {
	level := globalState.level
	if compLevel, ok := globalState.components[component]; ok {
		level = compLevel
	}

	var sink io.Writer = io.Discard
	if globalState.initialized && globalState.file != nil {
		sink = globalState.file
	}

	logger := &Logger{
		file: log.NewWithOptions(sink, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
		component: component,
	}

	if globalState.initialized && globalState.consoleEnabled {
		logger.console = log.NewWithOptions(globalState.console, log.Options{
			Level:           globalState.consoleLevel.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}

	return logger
}

// Close closes the log file and returns every logger to the silent state.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}

	var err error
	if globalState.file != nil {
		if cerr := globalState.file.Close(); cerr != nil {
			err = fmt.Errorf("closing log file: %w", cerr)
		}
		globalState.file = nil
	}

	globalState.initialized = false
	globalState.consoleEnabled = false
	globalState.components = make(map[string]Level)
	for component := range globalState.loggers {
		globalState.loggers[component] = createLogger(component)
	}

	return err
}

// DefaultLogPath returns $XDG_STATE_HOME/fileutil/fileutil.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "fileutil", "fileutil.log")
}

// DefaultConfig returns the configuration used when nothing is set:
// info level, no file sink and no console output.
func DefaultConfig() Config {
	return Config{Level: "info"}
}
