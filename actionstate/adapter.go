// Package actionstate turns a remote action endpoint into a state with two
// outcomes. An Adapter resolves the goal parameters for each activation,
// sends exactly one goal, waits a bounded time and reduces the goal status to
// success or failed. Failures never escape as errors.
package actionstate

import (
	"context"
	"log/slog"
	"time"

	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/logger"
	"github.com/mir-robotics/actionstates/params"
	"github.com/mir-robotics/actionstates/statemachine"
)

// Adapter is an action-backed state. It holds nothing between activations
// except what was fixed at construction.
type Adapter struct {
	spec   Spec
	client actionlib.Client
	name   string

	log             *slog.Logger
	cancelOnTimeout bool
}

var _ statemachine.State = (*Adapter)(nil)

// Option customises an Adapter.
type Option func(*Adapter)

// WithLogger makes the adapter log to l instead of the context logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.log = l
	}
}

// WithName sets the state name, which defaults to Spec.Name.
func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

// WithTimeout overrides Spec.Timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.spec.Timeout = d
		}
	}
}

// WithCancelOnTimeout controls whether a cancel request is sent when the
// wait elapses. It is on by default; when off, the goal keeps running on the
// server after the adapter has reported failed.
func WithCancelOnTimeout(enabled bool) Option {
	return func(a *Adapter) {
		a.cancelOnTimeout = enabled
	}
}

// New validates spec and binds it to client. It blocks until the endpoint is
// reachable; only ctx can end that wait early.
func New(ctx context.Context, client actionlib.Client, spec Spec, opts ...Option) (*Adapter, error) {
	adapter := &Adapter{
		spec:            spec.Clone(),
		client:          client,
		name:            spec.Name,
		cancelOnTimeout: true,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	err := adapter.spec.Validate()
	if err != nil {
		return nil, err
	}

	ctx = logger.WithAction(ctx, adapter.name)

	adapter.logger(ctx).DebugContext(ctx, "waiting for action server", "endpoint", adapter.spec.Endpoint)

	err = client.WaitForServer(ctx)
	if err != nil {
		return nil, logger.AnnotateError(err, "endpoint", adapter.spec.Endpoint)
	}

	return adapter, nil
}

// Name returns the state name.
func (a *Adapter) Name() string {
	return a.name
}

// Spec returns a copy of the adapter's spec.
func (a *Adapter) Spec() Spec {
	return a.spec.Clone()
}

// Endpoint returns the bound action server name.
func (a *Adapter) Endpoint() string {
	return a.spec.Endpoint
}

// Timeout returns the bounded wait applied to each activation.
func (a *Adapter) Timeout() time.Duration {
	return a.spec.Timeout
}

// InputKeys lists the shared-context fields this adapter reads.
func (a *Adapter) InputKeys() []string {
	return append([]string(nil), a.spec.InputKeys...)
}

func (a *Adapter) logger(ctx context.Context) *slog.Logger {
	if a.log != nil {
		return a.log.With("action", a.name)
	}

	return logger.Get(ctx)
}

// Activate runs one activation and returns only its outcome.
func (a *Adapter) Activate(ctx context.Context, goal, args params.Params) Outcome {
	return a.Run(ctx, goal, args).Outcome
}

// Run performs one activation: resolve, send, bounded wait, optional cancel,
// status read. It always returns a Result; failures are recorded in it.
func (a *Adapter) Run(ctx context.Context, goal, args params.Params) Result {
	start := time.Now()

	ctx = logger.WithAction(ctx, a.name)

	ctx, span := startActivationSpan(ctx, a)
	defer span.End()

	log := a.logger(ctx)

	result := a.run(ctx, log, goal, args)
	result.Duration = time.Since(start)

	finishActivationSpan(span, result)
	a.record(result)

	if result.Outcome == Success {
		log.InfoContext(ctx, "action succeeded",
			"endpoint", a.spec.Endpoint,
			"duration_ms", result.Duration.Milliseconds())
	} else {
		log.WarnContext(ctx, "action failed",
			"endpoint", a.spec.Endpoint,
			"status", result.statusLabel(),
			"timed_out", result.TimedOut,
			"duration_ms", result.Duration.Milliseconds(),
			"error", result.Err)
	}

	return result
}

func (a *Adapter) run(ctx context.Context, log *slog.Logger, goal, args params.Params) Result {
	res, err := a.resolve(ctx, log, goal, args)
	if err != nil {
		return Result{Outcome: Failed, Parameters: res.Params, Err: err}
	}

	result := Result{Outcome: Failed, Parameters: res.Params}

	log.DebugContext(ctx, "sending goal",
		"endpoint", a.spec.Endpoint,
		"parameters", res.Params.String(),
		"fingerprint", fingerprint(res.Params))

	remoteCalls.WithLabelValues(a.name, a.spec.Endpoint).Inc()

	err = a.client.SendGoal(ctx, actionlib.Goal{Parameters: res.Params})
	if err != nil {
		result.Err = err

		return result
	}

	result.Called = true

	if ider, ok := a.client.(interface{ GoalID() string }); ok {
		ctx = logger.WithGoalID(ctx, ider.GoalID())
		log = log.With("goal_id", ider.GoalID())
	}

	finished, err := a.client.WaitForResult(ctx, a.spec.Timeout)
	if err != nil {
		log.WarnContext(ctx, "waiting for result failed", "error", err)
	}

	// The status read and cancel must happen even if ctx is already done.
	readCtx := context.WithoutCancel(ctx)

	if !finished {
		// An error means the wait was cut short, not that it elapsed.
		result.TimedOut = err == nil

		if a.cancelOnTimeout {
			cancelErr := a.client.CancelGoal(readCtx)
			if cancelErr != nil {
				log.WarnContext(ctx, "cancel after timeout failed", "error", cancelErr)
			} else {
				result.Cancelled = true
			}
		}
	}

	status, err := a.client.GetState(readCtx)
	if err != nil {
		result.Err = err

		return result
	}

	result.Status = status
	result.Outcome = Reduce(status)

	return result
}

// Execute lets the adapter run as a state. It reads a snapshot of the shared
// goal plus the arguments the orchestrator staged for this activation.
func (a *Adapter) Execute(ctx context.Context, smCtx *statemachine.Context) (statemachine.TransitionResult, error) {
	result := a.Run(ctx, smCtx.Snapshot(), smCtx.Arguments())

	return statemachine.TransitionResult{
		Outcome: string(result.Outcome),
		Data: map[string]any{
			a.name + ".status":      result.statusLabel(),
			a.name + ".duration_ms": result.Duration.Milliseconds(),
		},
	}, nil
}
