package statemachine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statemachine"

// startExecutionSpan creates root span for state machine execution.
// Uses the global tracer provider installed by the telemetry package.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startExecutionSpan(ctx context.Context, smCtx *Context) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.execute")
	addContextAttributes(span, smCtx)

	return ctx, span
}

// startStateSpan creates child span for state execution.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startStateSpan(ctx context.Context, stateName string, smCtx *Context) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "state."+stateName)
	addContextAttributes(span, smCtx)
	span.SetAttributes(
		attribute.String("state", stateName),
		attribute.StringSlice("path_history", smCtx.Path()),
	)

	return ctx, span
}

func addContextAttributes(span trace.Span, smCtx *Context) {
	span.SetAttributes(
		attribute.String("scenario", smCtx.Scenario),
		attribute.String("run_id", smCtx.RunID),
	)
}

// extractTraceContext extracts trace ID and span ID from context for logging.
func extractTraceContext(ctx context.Context) (traceID, spanID string) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()

		return spanCtx.TraceID().String(), spanCtx.SpanID().String()
	}

	return "", ""
}
