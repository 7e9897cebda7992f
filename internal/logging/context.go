// internal/logging/context.go
package logging

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type crewCtxKey struct{}

// WithCrewID returns a context carrying the crew ID for log correlation.
func WithCrewID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, crewCtxKey{}, id)
}

// CrewIDFromContext returns the crew ID stored by WithCrewID.
func CrewIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(crewCtxKey{}).(uuid.UUID)
	return id, ok
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 3)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if id, ok := CrewIDFromContext(ctx); ok {
		fields = append(fields, zap.String("crew.id", id.String()))
	}

	return fields
}
