// Package logging wraps charmbracelet/log behind a package-level
// default logger so every component logs with the same prefix and
// level handling.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var defaultLogger = newLogger(Options{})

// Options controls logger construction.
type Options struct {
	Level   string
	Output  io.Writer
	Verbose bool
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info", "":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func newLogger(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := parseLevel(opts.Level)
	if opts.Verbose {
		level = log.DebugLevel
	}

	return log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          "capreport",
		ReportTimestamp: false,
	})
}

// Setup replaces the default logger with one built from opts.
func Setup(opts Options) {
	defaultLogger = newLogger(opts)
}

// Default returns the package-level logger.
func Default() *log.Logger {
	return defaultLogger
}

// With returns a sub-logger carrying the given key-value context.
func With(keyvals ...any) *log.Logger {
	return defaultLogger.With(keyvals...)
}

// Debug logs at debug level.
func Debug(msg string, keyvals ...any) { defaultLogger.Debug(msg, keyvals...) }

// Info logs at info level.
func Info(msg string, keyvals ...any) { defaultLogger.Info(msg, keyvals...) }

// Warn logs at warn level.
func Warn(msg string, keyvals ...any) { defaultLogger.Warn(msg, keyvals...) }

// Error logs at error level.
func Error(msg string, keyvals ...any) { defaultLogger.Error(msg, keyvals...) }
