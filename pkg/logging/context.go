package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const (
	// loggerKey is the context key for the logger.
	loggerKey contextKey = iota
	// agencyKey is the context key for the agency being processed.
	agencyKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}

	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}

	return Default()
}

// Ctx returns a logger from the context or the default logger.
// This is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithAgency tags the context logger with the agency being processed, so
// every log line emitted while crawling that agency carries its ID.
func WithAgency(ctx context.Context, agencyID string) context.Context {
	ctx = context.WithValue(ctx, agencyKey, agencyID)

	logger := FromContext(ctx)
	newLogger := logger.With().Str("agency", agencyID).Logger()
	return WithLogger(ctx, &newLogger)
}

// Agency extracts the agency ID from context.
func Agency(ctx context.Context) string {
	if id, ok := ctx.Value(agencyKey).(string); ok {
		return id
	}
	return ""
}
