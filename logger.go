package kforest

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with kforest-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithVariant adds the clustering variant to the logger.
func (l *Logger) WithVariant(variant string) *Logger {
	return &Logger{
		Logger: l.Logger.With("variant", variant),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogClustering logs the outcome of a clustering run.
func (l *Logger) LogClustering(ctx context.Context, variant string, points, iterations int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"variant", variant,
			"points", points,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "clustering completed",
		"variant", variant,
		"points", points,
		"iterations", iterations,
		"elapsed", elapsed,
	)
}

// LogIteration logs one assign/update round.
func (l *Logger) LogIteration(ctx context.Context, iteration int, displacement float32, changed int) {
	l.DebugContext(ctx, "iteration",
		"iteration", iteration,
		"max_displacement", displacement,
		"changed", changed,
	)
}

// LogIndexBuild logs the construction of a forest index.
func (l *Logger) LogIndexBuild(ctx context.Context, points, trees int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"points", points,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "index built",
		"points", points,
		"trees", trees,
		"elapsed", elapsed,
	)
}
