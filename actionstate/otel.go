package actionstate

import (
	"context"
	"strconv"

	"github.com/mir-robotics/actionstates/params"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "actionstate"

// startActivationSpan opens the span covering one activation. The caller ends it.
//
//nolint:spancheck
func startActivationSpan(ctx context.Context, a *Adapter) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "actionstate."+a.name)
	span.SetAttributes(
		attribute.String("action", a.name),
		attribute.String("endpoint", a.spec.Endpoint),
		attribute.Int64("timeout_ms", a.spec.Timeout.Milliseconds()),
	)

	return ctx, span
}

func finishActivationSpan(span trace.Span, result Result) {
	span.SetAttributes(
		attribute.String("outcome", result.Outcome.String()),
		attribute.String("status", result.statusLabel()),
		attribute.Bool("timed_out", result.TimedOut),
		attribute.Bool("cancelled", result.Cancelled),
		attribute.String("params_fingerprint", fingerprint(result.Parameters)),
		attribute.Int64("duration_ms", result.Duration.Milliseconds()),
	)

	if result.Err != nil {
		span.RecordError(result.Err)
	}

	if result.Outcome == Success {
		span.SetStatus(codes.Ok, "succeeded")
	} else {
		span.SetStatus(codes.Error, "failed")
	}
}

// fingerprint hashes the wire form of p so identical goals can be correlated
// across logs and traces without printing every value.
func fingerprint(p params.Params) string {
	h := xxh3.New()

	for _, kv := range p.Pairs() {
		_, _ = h.WriteString(kv.Key)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(kv.Value)
		_, _ = h.Write([]byte{0})
	}

	return strconv.FormatUint(h.Sum64(), 16)
}
