package statemachine

import "context"

// OutcomeTransition fires when the state it leaves finished with a given outcome.
type OutcomeTransition struct {
	from    string
	outcome string
	to      string
}

// NewOutcomeTransition creates a transition from -> to taken on outcome.
func NewOutcomeTransition(from, outcome, to string) *OutcomeTransition {
	return &OutcomeTransition{
		from:    from,
		outcome: outcome,
		to:      to,
	}
}

func (t *OutcomeTransition) From() string {
	return t.from
}

func (t *OutcomeTransition) To() string {
	return t.to
}

// Outcome returns the label this transition is taken on.
func (t *OutcomeTransition) Outcome() string {
	return t.outcome
}

func (t *OutcomeTransition) Condition(_ context.Context, _ *Context, result TransitionResult) (bool, error) {
	return result.Outcome == t.outcome, nil
}

// SimpleTransition always transitions from A to B.
type SimpleTransition struct {
	from string
	to   string
}

// NewSimpleTransition creates a new simple transition.
func NewSimpleTransition(from, to string) *SimpleTransition {
	return &SimpleTransition{
		from: from,
		to:   to,
	}
}

func (t *SimpleTransition) From() string {
	return t.from
}

func (t *SimpleTransition) To() string {
	return t.to
}

func (t *SimpleTransition) Condition(context.Context, *Context, TransitionResult) (bool, error) {
	return true, nil
}
