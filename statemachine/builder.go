package statemachine

import (
	"context"
	"maps"

	"github.com/mir-robotics/actionstates/params"
)

// Builder provides a fluent API for constructing state machines.
type Builder struct {
	config             *Config
	factory            *StateFactory
	programmaticStates map[string]State // stores states created programmatically
}

// NewBuilder creates a new state machine builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		config: &Config{
			Name:   name,
			States: []StateConfig{},
		},
		factory:            NewStateFactory(),
		programmaticStates: make(map[string]State),
	}
}

// WithFactory makes Build create configured states through factory.
func (b *Builder) WithFactory(factory *StateFactory) *Builder {
	b.factory = factory

	return b
}

// WithInitialState sets the initial state.
func (b *Builder) WithInitialState(state string) *Builder {
	b.config.InitialState = state

	return b
}

// WithFinalStates sets the final states and adds them as final states.
func (b *Builder) WithFinalStates(states ...string) *Builder {
	b.config.FinalStates = states

	for _, name := range states {
		b.config.States = append(b.config.States, StateConfig{Name: name, Type: StateTypeFinal})
	}

	return b
}

// WithGoal sets the goal parameters new contexts start from.
func (b *Builder) WithGoal(goal params.Params) *Builder {
	b.config.Goal = goal.Clone()

	return b
}

// AddState adds a state configuration.
func (b *Builder) AddState(config StateConfig) *Builder {
	b.config.States = append(b.config.States, config)

	return b
}

// AddAction adds an action state of kind whose outcomes lead to transitions.
func (b *Builder) AddAction(name, kind string, args params.Params, transitions map[string]string) *Builder {
	return b.AddState(StateConfig{
		Name:        name,
		Type:        StateTypeAction,
		Action:      &ActionConfig{Kind: kind, Args: args},
		Transitions: maps.Clone(transitions),
	})
}

// AddStateInstance adds an already constructed state.
func (b *Builder) AddStateInstance(state State, transitions map[string]string) *Builder {
	b.programmaticStates[state.Name()] = state

	// The noop placeholder passes validation and is replaced in Build.
	return b.AddAction(state.Name(), KindNoop, params.Params{}, transitions)
}

// RegisterStateBuilder registers a builder for an action kind.
func (b *Builder) RegisterStateBuilder(kind string, builder StateBuilder) *Builder {
	b.factory.Register(kind, builder)

	return b
}

// Config returns the configuration assembled so far.
func (b *Builder) Config() *Config {
	return b.config
}

// Build constructs the state machine engine.
func (b *Builder) Build(ctx context.Context) (*Engine, error) {
	engine, err := NewEngine(ctx, b.config, b.factory)
	if err != nil {
		return nil, err
	}

	for _, state := range b.programmaticStates {
		engine.RegisterState(state)
	}

	return engine, nil
}
