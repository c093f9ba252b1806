// Package mlog defines the structured logging interface used across the
// reservation core. It mirrors the teacher's own mlog contract so every
// component logs through the same small surface regardless of backend.
package mlog

import "context"

// Logger is the common interface implemented by every logging backend used
// in this service.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)

	// WithFields returns a derived Logger that always includes the given
	// key/value pairs (alternating key, value, key, value, ...).
	WithFields(fields ...any) Logger

	Sync() error
}

type loggerContextKey struct{}

// ContextWithLogger returns a context carrying the given Logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext extracts the Logger previously attached with
// ContextWithLogger, falling back to a no-op logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(Logger); ok {
		return l
	}

	return NopLogger{}
}

// NopLogger discards everything. Used as the context fallback and in tests.
type NopLogger struct{}

func (NopLogger) Info(args ...any)             {}
func (NopLogger) Infof(format string, a ...any) {}
func (NopLogger) Warn(args ...any)              {}
func (NopLogger) Warnf(format string, a ...any) {}
func (NopLogger) Error(args ...any)             {}
func (NopLogger) Errorf(format string, a ...any) {}
func (NopLogger) Debug(args ...any)             {}
func (NopLogger) Debugf(format string, a ...any) {}
func (NopLogger) Fatal(args ...any)             {}
func (NopLogger) Fatalf(format string, a ...any) {}
func (l NopLogger) WithFields(fields ...any) Logger { return l }
func (NopLogger) Sync() error                   { return nil }
