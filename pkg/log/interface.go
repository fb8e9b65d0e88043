// Package log provides a structured logging interface for dimred.
//
// The interface is slog-compatible in shape so that callers never depend on a
// concrete backend. The production backend is zerolog (see logger.go); tests
// use TestLogger, which captures JSON lines in memory.
//
// Example usage:
//
//	logger := log.Default().With(log.ReducerKey, "UMAP")
//	logger.Info("Running reducer",
//	    log.SamplesKey, 500,
//	    log.FeaturesKey, 20,
//	)

package log

import (
	"context"
)

// Logger defines a structured logging interface.
//
// Fields are alternating key/value pairs. Error accepts an error value as the
// first field; backends attach its stack trace.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	//
	// Example:
	//   logger.Info("Reducer completed",
	//       log.ReducerKey, "PCA",
	//       log.DurationSecondsKey, 1.25,
	//   )
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error, it is attached as the record's error
	// together with its stack trace.
	//
	// Example:
	//   logger.Error("Run aborted", err, log.ReducerKey, "t-SNE")
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
