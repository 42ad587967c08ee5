package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a tracer provider backed by an in-memory exporter.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))

	oldProvider := otel.GetTracerProvider()

	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(oldProvider)
	})

	return exporter
}

// Cannot use t.Parallel(): modifies the global tracer provider.
//
//nolint:paralleltest
func TestExecutionSpans(t *testing.T) {
	exporter := setupTestTracer(t)

	move := &scriptedState{name: "move", results: []TransitionResult{outcome(OutcomeSuccess)}}

	engine := buildEngine(t, NewBuilder("traced").
		WithInitialState("move").
		WithFinalStates("done").
		AddStateInstance(move, map[string]string{OutcomeSuccess: "done"}))

	smCtx := engine.NewContext()
	require.NoError(t, engine.Execute(t.Context(), smCtx))

	byName := make(map[string]tracetest.SpanStub)
	for _, span := range exporter.GetSpans() {
		byName[span.Name] = span
	}

	root, ok := byName["statemachine.execute"]
	require.True(t, ok)
	assert.Equal(t, codes.Ok, root.Status.Code)

	attrs := make(map[string]any)
	for _, attr := range root.Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	assert.Equal(t, "traced", attrs["scenario"])
	assert.Equal(t, smCtx.RunID, attrs["run_id"])
	assert.Equal(t, "done", attrs["final_state"])

	state, ok := byName["state.move"]
	require.True(t, ok)
	assert.Equal(t, root.SpanContext.TraceID(), state.SpanContext.TraceID())
	assert.Equal(t, root.SpanContext.SpanID(), state.Parent.SpanID())

	_, ok = byName["state.done"]
	assert.True(t, ok)
}
