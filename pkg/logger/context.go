package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	sourceKey contextKey = "source"
	jobKey    contextKey = "job"
	loggerKey contextKey = "logger"
)

// WithRunID adds the run ID to context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithSource adds the input document name to context
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// WithJob adds the scheduler job name to context
func WithJob(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, jobKey, job)
}

// WithLogger stores a logger in the context
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts logger from context with all accumulated fields
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}

	l := Logger
	var fields []zap.Field

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	if source, ok := ctx.Value(sourceKey).(string); ok && source != "" {
		fields = append(fields, zap.String("source", source))
	}
	if job, ok := ctx.Value(jobKey).(string); ok && job != "" {
		fields = append(fields, zap.String("job", job))
	}

	if len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

// CountField returns a zap field for a record or segment count
func CountField(name string, count int) zap.Field {
	return zap.Int(name, count)
}

// DurationField returns a zap field for duration in milliseconds
func DurationField(durationMs int64) zap.Field {
	return zap.Int64("duration_ms", durationMs)
}
