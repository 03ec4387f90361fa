package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/taskdesk/task-system/internal/core/domain"
)

var tracer = otel.Tracer("github.com/taskdesk/task-system/internal/core/service")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records the outcome reason on span and ends it.
func endSpan(span trace.Span, err error) {
	reason := domain.ReasonOf(err)
	span.SetAttributes(attribute.String("outcome", reason.String()))
	if reason == domain.ReasonDatabaseError {
		span.SetStatus(codes.Error, reason.String())
	}
	span.End()
}
