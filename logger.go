// Package transitlog implements an asynchronous logging pipeline for Go
// applications.
//
// This package provides a logging system built around a transit buffer:
// - Multiple log levels (Trace, Debug, Info, Warn, Error, Fatal)
// - Structured logging with typed fields
// - Context-aware logging for propagating request metadata
// - A bounded single-producer/single-consumer byte queue between callers
//   and the backend, so hot paths never touch the output device
// - A single backend worker that decodes, formats, and writes entries,
//   staging them in a growable ring that decays back toward demand
// - Color-coded terminal output and JSON output
// - Log file rotation and compression
//
// Calls to the leveled methods encode the entry and hand it to the
// backend; the price of formatting and I/O is paid off the caller's
// goroutine. Overflow behavior when callers outrun the backend is
// configurable: drop the newest entry or block until space frees up.
//
// Basic usage:
//
//	log, err := transitlog.New(transitlog.DefaultConfig())
//	if err != nil {
//		panic(err)
//	}
//	defer log.Close()
//
//	log.Info("application started")
//	log.WithField("user", "admin").Debug("user logged in")
//	log.WithError(err).Error("operation failed")
//
// Always call Close (or at least Sync) before exit so every buffered
// entry reaches its destination.
package transitlog

import (
	"context"
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/transitlog/internal/transit"
)

// Level represents the severity of a log message.
type Level uint8

const (
	// TraceLevel represents verbose debugging information.
	TraceLevel Level = iota
	// DebugLevel represents debugging information.
	DebugLevel
	// InfoLevel represents general operational information.
	InfoLevel
	// WarnLevel represents warning messages.
	WarnLevel
	// ErrorLevel represents error messages.
	ErrorLevel
	// FatalLevel represents fatal error messages.
	FatalLevel
)

// String returns the string representation of a log level.
func (l Level) String() string {
	return transit.LevelString(uint8(l))
}

// IsValid returns true if the given Level is a valid log level, and false otherwise.
func (l Level) IsValid() bool {
	return l >= TraceLevel && l <= FatalLevel
}

// ParseLevel parses the given log level string, case-insensitively, and
// returns the corresponding Level. "warning" is accepted as an alias
// for "warn".
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel, nil
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, ewrap.New("invalid log level: " + level)
	}
}

// Field represents a key-value pair in structured logging.
type Field struct {
	Key   string
	Value any
}

// Logger defines the interface for logging operations.
type Logger interface {
	// Log methods for different levels
	Trace(msg string)
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)

	// Formatted log methods
	FormattedLogger

	Methods
}

// Methods defines the interface for logging methods.
type Methods interface {
	// WithContext adds context information to the logger
	WithContext(ctx context.Context) Logger
	// WithFields adds structured fields to the logger
	WithFields(fields ...Field) Logger
	// WithField adds a single field to the logger
	WithField(key string, value any) Logger
	// WithError adds an error to the logger
	WithError(err error) Logger
	// GetLevel returns the current logging level
	GetLevel() Level
	// SetLevel sets the logging level
	SetLevel(level Level)
	// Flush blocks until everything logged before the call is written
	Flush(ctx context.Context) error
	// Sync ensures all logs are written
	Sync() error
	// RequestBufferShrink asks the backend to return its staging buffer
	// to the initial capacity once it drains
	RequestBufferShrink()
	// Close flushes and shuts the logger down
	Close() error
	// GetConfig returns the current logger configuration
	GetConfig() *Config
}

// FormattedLogger defines the interface for logging formatted messages.
type FormattedLogger interface {
	// Tracef logs a message at the Trace level
	Tracef(format string, args ...any)
	// Debugf logs a message at the Debug level
	Debugf(format string, args ...any)
	// Infof logs a message at the Info level
	Infof(format string, args ...any)
	// Warnf logs a message at the Warn level
	Warnf(format string, args ...any)
	// Errorf logs a message at the Error level
	Errorf(format string, args ...any)
	// Fatalf logs a message at the Fatal level
	Fatalf(format string, args ...any)
}
