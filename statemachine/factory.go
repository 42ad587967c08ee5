package statemachine

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// KindNoop is a built-in action kind that always finishes with OutcomeSuccess.
const KindNoop = "noop"

// StateBuilder creates a state from its configuration. Builders may block,
// e.g. while the remote endpoint behind the state comes up; ctx bounds that.
type StateBuilder func(ctx context.Context, name string, action ActionConfig) (State, error)

// StateFactory creates states from configuration.
// Applications register builders per action kind to extend the framework.
type StateFactory struct {
	mu       sync.RWMutex
	builders map[string]StateBuilder
}

// NewStateFactory creates a new factory with the built-in builders.
func NewStateFactory() *StateFactory {
	factory := &StateFactory{
		builders: make(map[string]StateBuilder),
	}

	factory.Register(KindNoop, noopStateBuilder)

	return factory
}

// Register registers a builder for an action kind, replacing any previous one.
func (f *StateFactory) Register(kind string, builder StateBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.builders[kind] = builder
}

// Kinds returns the registered action kinds, sorted.
func (f *StateFactory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]string, 0, len(f.builders))
	for k := range f.builders {
		kinds = append(kinds, k)
	}

	slices.Sort(kinds)

	return kinds
}

// Create creates a state from configuration.
func (f *StateFactory) Create(ctx context.Context, config StateConfig) (State, error) {
	switch config.Type {
	case StateTypeFinal:
		return NewFinalState(config.Name), nil
	case StateTypeAction:
		if config.Action == nil {
			return nil, fmt.Errorf("state %s: %w", config.Name, ErrActionStateMissingAction)
		}

		f.mu.RLock()
		builder, ok := f.builders[config.Action.Kind]
		f.mu.RUnlock()

		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownActionKind, config.Action.Kind)
		}

		return builder(ctx, config.Name, *config.Action)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStateType, config.Type)
	}
}

func noopStateBuilder(_ context.Context, name string, _ ActionConfig) (State, error) {
	return NewFuncState(name, func(context.Context, *Context) (string, error) {
		return OutcomeSuccess, nil
	}), nil
}
