// Package logger wraps slog with the small surface the RTMP client needs:
// structured JSON logging with per-session attribute scoping via With.
package logger

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with structured logging capabilities.
type Logger struct {
	handler slog.Handler
	logger  *slog.Logger
}

// New creates a logger with JSON output to stdout at the given level.
func New(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		handler: handler,
		logger:  slog.New(handler),
	}
}

// Info logs an info level message with key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Error logs an error level message with key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Warn logs a warn level message with key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Debug logs a debug level message with key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// With returns a child logger that prefixes every record with args, used to
// scope a logger to one session/stream ("session_id", id).
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		handler: l.handler.WithAttrs(parseArgs(args...)),
		logger:  l.logger.With(args...),
	}
}

// WithGroup creates a new logger with a grouped namespace.
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		handler: l.handler.WithGroup(name),
		logger:  l.logger.WithGroup(name),
	}
}

func parseArgs(args ...any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}
