package logger

import "context"

// noopLogger discards everything. Useful as a default in tests.
type noopLogger struct{}

// NewNoopLogger returns a Logger that discards all messages.
func NewNoopLogger() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(ctx context.Context, message string, fields ...Field)            {}
func (noopLogger) Info(ctx context.Context, message string, fields ...Field)             {}
func (noopLogger) Warn(ctx context.Context, message string, fields ...Field)             {}
func (noopLogger) Error(ctx context.Context, message string, err error, fields ...Field) {}
func (noopLogger) Fatal(ctx context.Context, message string, err error, fields ...Field) {}
func (n noopLogger) WithFields(fields ...Field) Logger                                   { return n }
func (n noopLogger) WithComponent(component string) Logger                               { return n }
