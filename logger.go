package webbridge

import "log/slog"

// Logger defines an interface for logging at different severity levels.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var defaultLogger Logger = slog.Default()

// SetDefaultLogger sets the logger used by bridges created without WithLogger.
// slog.Default() is used by default.
func SetDefaultLogger(l Logger) {
	if l == nil {
		l = slog.Default()
	}
	defaultLogger = l
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}
