// =============================================================================
// Excel Analytics - Logging
// =============================================================================
//
// Logger is the leveled logging interface used throughout the pipeline.
// Messages are printf-style.
//
// LEVELS:
//   debug < info < warn < error
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Level is a logging threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converts "debug", "info", "warn" or "error" to a Level.
// Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// String returns the tag printed in front of each message.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// =============================================================================
// STANDARD LOGGER
// =============================================================================

// StdLogger writes leveled messages through the standard log package.
// It is safe for concurrent use.
type StdLogger struct {
	level Level
	out   *log.Logger
}

// New creates a logger writing to w at the given minimum level.
func New(w io.Writer, level Level) *StdLogger {
	return &StdLogger{
		level: level,
		out:   log.New(w, "", log.LstdFlags),
	}
}

// NewFromConfig creates a logger from config values.
//
// PARAMETERS:
//   - level: The level name ("debug", "info", "warn", "error").
//   - logFile: Optional path to a log file. Messages go to both stdout and
//              the file when set.
//
// RETURNS:
//   - The logger.
//   - A close function for the log file (no-op when no file is used).
//   - An error if the log file cannot be opened.
func NewFromConfig(level, logFile string) (*StdLogger, func() error, error) {
	if logFile == "" {
		return New(os.Stdout, ParseLevel(level)), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return New(io.MultiWriter(os.Stdout, f), ParseLevel(level)), f.Close, nil
}

func (l *StdLogger) logf(level Level, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.out.Printf("["+level.String()+"] "+msg, args...)
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.logf(LevelDebug, msg, args...) }

func (l *StdLogger) Info(msg string, args ...interface{}) { l.logf(LevelInfo, msg, args...) }

func (l *StdLogger) Warn(msg string, args ...interface{}) { l.logf(LevelWarn, msg, args...) }

func (l *StdLogger) Error(msg string, args ...interface{}) { l.logf(LevelError, msg, args...) }

// =============================================================================
// NOP LOGGER
// =============================================================================

// Nop discards everything.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
