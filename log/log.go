// Package log provides structured logging for the zkVM execution-and-trace
// core. It wraps Go's log/slog with per-module child loggers so the
// interpreter, each chip's trace generator, and the segmenter can log under
// their own name without threading a logger through every call.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with Ethereum-specific context.
type Logger struct {
	inner *slog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions.
var defaultLogger *Logger

func init() {
	defaultLogger = New(slog.LevelInfo)
	if name := os.Getenv("ZKVM_LOG_FORMAT"); name != "" {
		if f, ok := formatterByName(name); ok {
			defaultLogger = NewWithFormatter(slog.LevelInfo, os.Stderr, f)
		}
	}
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{inner: slog.New(h)}
}

// formatterByName resolves ZKVM_LOG_FORMAT's value to a LogFormatter; ok is
// false for an unrecognized name so the caller can fall back to the default
// slog.JSONHandler logger instead.
func formatterByName(name string) (f LogFormatter, ok bool) {
	switch name {
	case "text":
		return &TextFormatter{}, true
	case "color":
		return &ColorFormatter{}, true
	case "json":
		return &JSONFormatter{}, true
	default:
		return nil, false
	}
}

// NewWithFormatter creates a Logger that writes through the given
// LogFormatter instead of slog's own handlers, so the same leveled,
// module-scoped Logger API can emit the plain-text/color/JSON line styles
// formatter.go defines -- useful when running the interpreter interactively
// against a terminal rather than piping structured JSON to a log collector.
func NewWithFormatter(level slog.Level, w io.Writer, f LogFormatter) *Logger {
	return &Logger{inner: slog.New(&formatterHandler{w: w, f: f, level: level})}
}

// formatterHandler adapts a LogFormatter to the slog.Handler interface so it
// can back a Logger the same way slog.NewJSONHandler does.
type formatterHandler struct {
	w     io.Writer
	f     LogFormatter
	level slog.Level
	attrs map[string]interface{}
}

func (h *formatterHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *formatterHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for k, v := range h.attrs {
		fields[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})
	entry := LogEntry{
		Timestamp: r.Time,
		Level:     slogLevelToLogLevel(r.Level),
		Message:   r.Message,
		Fields:    fields,
	}
	_, err := h.w.Write([]byte(h.f.Format(entry) + "\n"))
	return err
}

func (h *formatterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make(map[string]interface{}, len(h.attrs)+len(attrs))
	for k, v := range h.attrs {
		merged[k] = v
	}
	for _, a := range attrs {
		merged[a.Key] = a.Value.Any()
	}
	return &formatterHandler{w: h.w, f: h.f, level: h.level, attrs: merged}
}

func (h *formatterHandler) WithGroup(_ string) slog.Handler { return h }

func slogLevelToLogLevel(l slog.Level) LogLevel {
	switch {
	case l < slog.LevelInfo:
		return DEBUG
	case l < slog.LevelWarn:
		return INFO
	case l < slog.LevelError:
		return WARN
	default:
		return ERROR
	}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. This
// is useful for testing or for writing to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger with an additional "module" attribute. This
// is the primary way subsystems (evm, txpool, p2p, ...) obtain their own
// contextual logger.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// ---------------------------------------------------------------------------
// Package-level convenience functions -- delegate to defaultLogger.
// ---------------------------------------------------------------------------

// Module returns a child logger of the default logger with an additional
// "module" attribute.
func Module(name string) *Logger { return defaultLogger.Module(name) }

// Debug logs at LevelDebug using the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at LevelInfo using the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at LevelWarn using the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at LevelError using the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
