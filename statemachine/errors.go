package statemachine

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	ErrStateNotFound      = errors.New("state not found")
	ErrTransitionNotFound = errors.New("no valid transition found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	// ErrMaxStepsExceeded indicates the engine stopped a run that kept cycling.
	ErrMaxStepsExceeded = errors.New("maximum number of steps exceeded")

	// ErrConfigNameRequired indicates that a configuration name is required.
	ErrConfigNameRequired = errors.New("config name is required")
	// ErrInitialStateRequired indicates that an initial state is required.
	ErrInitialStateRequired = errors.New("initial state is required")
	// ErrFinalStateRequired indicates that at least one final state is required.
	ErrFinalStateRequired = errors.New("at least one final state is required")
	// ErrStateRequired indicates that at least one state is required.
	ErrStateRequired = errors.New("at least one state is required")
	// ErrInitialStateNotFound indicates that the initial state does not exist.
	ErrInitialStateNotFound = errors.New("initial state does not exist")
	// ErrFinalStateNotFound indicates that a final state does not exist.
	ErrFinalStateNotFound = errors.New("final state does not exist")
	// ErrStateNameRequired indicates that a state name is required.
	ErrStateNameRequired = errors.New("state name is required")
	// ErrDuplicateStateName indicates that a duplicate state name was found.
	ErrDuplicateStateName = errors.New("duplicate state name")
	// ErrStateTypeRequired indicates that a state type is required.
	ErrStateTypeRequired = errors.New("state type is required")
	// ErrActionStateMissingAction indicates that an action state has no action kind.
	ErrActionStateMissingAction = errors.New("action state must name an action kind")
	// ErrActionStateMissingTransitions indicates that an action state maps no outcome.
	ErrActionStateMissingTransitions = errors.New("action state must map at least one outcome")
	// ErrTransitionOutcomeRequired indicates that a transition has an empty outcome label.
	ErrTransitionOutcomeRequired = errors.New("transition outcome is required")
	// ErrTransitionToNotFound indicates that a transition target does not exist.
	ErrTransitionToNotFound = errors.New("transition to state does not exist")
	// ErrInvalidTimeout indicates that a state timeout could not be parsed.
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrNoConfigLoader indicates that no config loader is registered.
	ErrNoConfigLoader = errors.New("no config loader registered; use SetConfigLoader() or provide a file path")

	// ErrUnknownStateType indicates that an unknown state type was encountered.
	ErrUnknownStateType = errors.New("unknown state type")
	// ErrUnknownActionKind indicates that no builder is registered for an action kind.
	ErrUnknownActionKind = errors.New("unknown action kind")
)

// StateError wraps an error with the state it happened in.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// TransitionError wraps an error with the transition being resolved.
type TransitionError struct {
	From    string
	To      string
	Outcome string
	Err     error
}

func (e *TransitionError) Error() string {
	switch {
	case e.To != "":
		return fmt.Sprintf("transition %s -> %s: %v", e.From, e.To, e.Err)
	case e.Outcome != "":
		return fmt.Sprintf("transition from %s on %q: %v", e.From, e.Outcome, e.Err)
	default:
		return fmt.Sprintf("transition from %s: %v", e.From, e.Err)
	}
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// WrapStateError wraps an error with state context. A nil err stays nil.
func WrapStateError(state string, err error) error {
	if err == nil {
		return nil
	}

	return &StateError{State: state, Err: err}
}

// WrapTransitionError wraps an error with transition context. A nil err stays nil.
func WrapTransitionError(from, to, outcome string, err error) error {
	if err == nil {
		return nil
	}

	return &TransitionError{From: from, To: to, Outcome: outcome, Err: err}
}
