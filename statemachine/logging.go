package statemachine

import (
	"context"
	"log/slog"
	"time"

	"github.com/mir-robotics/actionstates/logger"
	"github.com/mir-robotics/actionstates/params"
)

// Logger provides logging hooks for state machine execution.
type Logger interface {
	StateEntered(ctx context.Context, state string, args params.Params)
	StateExited(ctx context.Context, state, outcome string, duration time.Duration, err error)
	TransitionExecuted(ctx context.Context, from, to, outcome string)
	ExecutionFinished(ctx context.Context, finalState string, path []string, duration time.Duration, err error)
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// stateMachineContextKey is the key used to store state machine context in Go context.
const stateMachineContextKey contextKey = "statemachine_context"

// FromContext returns the state machine context an engine attached to ctx.
func FromContext(ctx context.Context) (*Context, bool) {
	smCtx, ok := ctx.Value(stateMachineContextKey).(*Context)

	return smCtx, ok && smCtx != nil
}

// DefaultLogger implements Logger on top of the context logger.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger that writes through logger.Get(ctx).
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

// NewSlogLogger creates a logger that writes to l.
func NewSlogLogger(l *slog.Logger) *DefaultLogger {
	return &DefaultLogger{logger: l}
}

func (l *DefaultLogger) get(ctx context.Context) *slog.Logger {
	log := l.logger
	if log == nil {
		log = logger.Get(ctx)
	}

	if smCtx, ok := FromContext(ctx); ok {
		log = log.With("scenario", smCtx.Scenario, "run_id", smCtx.RunID)
	}

	if traceID, spanID := extractTraceContext(ctx); traceID != "" {
		log = log.With("trace_id", traceID, "span_id", spanID)
	}

	return log
}

func (l *DefaultLogger) StateEntered(ctx context.Context, state string, args params.Params) {
	fields := []any{"state", state}
	if args.Len() > 0 {
		fields = append(fields, "arguments", args.String())
	}

	l.get(ctx).InfoContext(ctx, "State entered", fields...)
}

func (l *DefaultLogger) StateExited(ctx context.Context, state, outcome string, duration time.Duration, err error) {
	fields := []any{
		"state", state,
		"outcome", sanitizeOutcome(outcome),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		l.get(ctx).ErrorContext(ctx, "State exited with error", append(fields, "error", err)...)
	} else {
		l.get(ctx).InfoContext(ctx, "State exited", fields...)
	}
}

func (l *DefaultLogger) TransitionExecuted(ctx context.Context, from, to, outcome string) {
	l.get(ctx).InfoContext(ctx, "Transition executed",
		"from", from,
		"to", to,
		"outcome", outcome)
}

func (l *DefaultLogger) ExecutionFinished(
	ctx context.Context, finalState string, path []string, duration time.Duration, err error,
) {
	fields := []any{
		"final_state", finalState,
		"path", path,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		l.get(ctx).ErrorContext(ctx, "Scenario aborted", append(fields, "error", err)...)
	} else {
		l.get(ctx).InfoContext(ctx, "Scenario finished", fields...)
	}
}
