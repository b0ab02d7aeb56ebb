package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const traceIDField = "traceId"

// InjectTraceID attaches a fresh trace id to the context logger so every
// log line of one run can be correlated.
func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	logger := log.With().Str(traceIDField, id).Logger()
	return logger.WithContext(ctx)
}

// InjectPeriod extends the context logger with the period being processed.
func InjectPeriod(ctx context.Context, periodID uint64) context.Context {
	logger := log.Ctx(ctx).With().Uint64("period", periodID).Logger()
	return logger.WithContext(ctx)
}
