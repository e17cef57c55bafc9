// Package logging provides structured logging configuration using zerolog.
//
// A run logs to two sinks: the console at a configurable level, off by
// default, and an optional per-run log file that always receives info and
// above.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelOff disables console logging.
	LevelOff LogLevel = "off"
)

// FileLevel is the minimum level written to the run log file.
const FileLevel = zerolog.InfoLevel

// runLogLayout names run log files, e.g. 2024-7-09--14-03-27.log.
const runLogLayout = "2006-1-02--15-04-05"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output on the console.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the console writer (default: os.Stderr).
	Output io.Writer

	// File receives info and above in addition to the console. Optional.
	File io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelOff,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	var writers []io.Writer
	minLevel := zerolog.Disabled

	consoleLevel := parseLevel(cfg.Level)
	if consoleLevel != zerolog.Disabled && cfg.Output != nil {
		var output io.Writer = cfg.Output
		if cfg.Pretty {
			output = zerolog.ConsoleWriter{Out: cfg.Output}
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: output},
			Level:  consoleLevel,
		})
		minLevel = consoleLevel
	}

	if cfg.File != nil {
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: cfg.File},
			Level:  FileLevel,
		})
		if FileLevel < minLevel {
			minLevel = FileLevel
		}
	}

	// The global level is the lowest level any sink accepts; each sink
	// filters on its own.
	zerolog.SetGlobalLevel(minLevel)

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// OpenRunLog creates the log file of a run started at now inside dir.
// The caller closes the file.
func OpenRunLog(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, now.Format(runLogLayout)+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return file, nil
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Request flow (operation names)
//   - Job polls (attempt, done)
//   - Throttle state updates
//
// Info: Normal operation events
//   - Pages of held orders fetched
//   - Release submitted, job created, job done
//   - Holds released
//
// Warn: Warning conditions that don't prevent operation
//   - Requested names without a held order
//   - Throttle waits
//   - Throttle store unavailable
//
// Error: Error conditions requiring attention
//   - Release rejected with user errors
//   - Orders left on hold by a finished job
//   - Job poll budget exhausted
//
// Context Fields:
//   - component: emitting component
//   - correlation_id: externalId sent with the release
//   - job_id: release job handle
//   - operation: GraphQL operation name
//   - page, page_size: held order pagination
//   - attempt: job poll number
//   - count: number of orders involved
