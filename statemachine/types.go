package statemachine

import (
	"context"

	"github.com/mir-robotics/actionstates/params"
)

// State represents a single state in the state machine.
type State interface {
	Name() string
	Execute(ctx context.Context, smCtx *Context) (TransitionResult, error)
}

// Transition represents a state transition rule.
type Transition interface {
	From() string
	To() string
	Condition(ctx context.Context, smCtx *Context, result TransitionResult) (bool, error)
}

// TransitionResult indicates the outcome of state execution.
type TransitionResult struct {
	// Outcome is the label the state finished with, e.g. "success" or "failed".
	Outcome string
	// NextState, when set, is preferred over other matching transitions.
	NextState string
	// Data is merged into the context data after the transition.
	Data map[string]any
	// Args are handed to the next state as its activation arguments.
	Args     params.Params
	Complete bool
}
