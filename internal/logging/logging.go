// Package logging provides structured logging using Go's slog package.
// Logs go to stderr so that command output on stdout stays machine readable.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RunIDKey is the context key for the pipeline run id.
	RunIDKey ContextKey = "run_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel converts "debug", "info", "warn" or "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat converts "json" or "text" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// InitLogger initializes the global logger on stderr.
func InitLogger(level Level, format Format) {
	InitLoggerTo(os.Stderr, level, format)
}

// InitLoggerTo initializes the global logger writing to w.
func InitLoggerTo(w io.Writer, level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// Or returns l, or the global logger when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return defaultLogger
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRunID adds a run id to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run id from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// FromContext returns l (or the global logger) with context values attached.
func FromContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	logger := Or(l)
	if runID := GetRunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// SourceParsed logs the outcome of normalizing one source.
func SourceParsed(l *slog.Logger, versionID, format string, books, verses, footnotes, diagnostics int, args ...any) {
	allArgs := []any{
		"version", versionID,
		"format", format,
		"books", books,
		"verses", verses,
		"footnotes", footnotes,
		"diagnostics", diagnostics,
	}
	allArgs = append(allArgs, args...)
	Or(l).Info("source_parsed", allArgs...)
}

// Diagnostic logs a recoverable parse problem. Severity "skip" logs at
// warn level, anything else at info level.
func Diagnostic(l *slog.Logger, severity, versionID, book, message string) {
	args := []any{
		"severity", severity,
		"version", versionID,
		"message", message,
	}
	if book != "" {
		args = append(args, "book", book)
	}
	if severity == "skip" {
		Or(l).Warn("diagnostic", args...)
		return
	}
	Or(l).Info("diagnostic", args...)
}

// BuildStep logs one completed step of the store build.
func BuildStep(l *slog.Logger, step string, rows int64, duration time.Duration, args ...any) {
	allArgs := []any{
		"step", step,
		"rows", rows,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	Or(l).Info("build_step", allArgs...)
}
