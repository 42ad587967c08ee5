package statemachine

import "context"

// Outcome labels shared by the built-in states.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// FuncState runs a function and reports its return value as the outcome.
// It lets tests and callers plug plain code into a scenario.
type FuncState struct {
	name string
	fn   func(ctx context.Context, smCtx *Context) (string, error)
}

// NewFuncState creates a new function-backed state.
func NewFuncState(name string, fn func(ctx context.Context, smCtx *Context) (string, error)) *FuncState {
	return &FuncState{
		name: name,
		fn:   fn,
	}
}

func (s *FuncState) Name() string {
	return s.name
}

func (s *FuncState) Execute(ctx context.Context, smCtx *Context) (TransitionResult, error) {
	outcome, err := s.fn(ctx, smCtx)
	if err != nil {
		return TransitionResult{}, err
	}

	return TransitionResult{Outcome: outcome}, nil
}

// FinalState marks completion.
type FinalState struct {
	name string
}

// NewFinalState creates a new final state.
func NewFinalState(name string) *FinalState {
	return &FinalState{
		name: name,
	}
}

func (s *FinalState) Name() string {
	return s.name
}

func (s *FinalState) Execute(context.Context, *Context) (TransitionResult, error) {
	return TransitionResult{
		Outcome:   s.name,
		NextState: s.name,
		Complete:  true,
	}, nil
}
