// Package logger provides the structured logging interface for the Crowdlens
// service. The zap-backed implementation lives in
// internal/infrastructure/monitoring; code elsewhere depends only on this
// interface so tests can substitute a no-op logger.
package logger

import (
	"context"
	"time"
)

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(ctx context.Context, message string, fields ...Field)

	// Info logs an informational message.
	Info(ctx context.Context, message string, fields ...Field)

	// Warn logs a warning message.
	Warn(ctx context.Context, message string, fields ...Field)

	// Error logs an error message.
	Error(ctx context.Context, message string, err error, fields ...Field)

	// Fatal logs a fatal message and exits the application.
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	// WithFields creates a new logger with additional base fields.
	WithFields(fields ...Field) Logger

	// WithComponent creates a new logger scoped to a component name.
	WithComponent(component string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time creates a time field in RFC3339.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any creates a field with any value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
