package statemachine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mir-robotics/actionstates/params"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Engine orchestrates state machine execution. It runs one state at a time
// and is the only writer of the Context while a run is in progress.
type Engine struct {
	name               string
	states             map[string]State
	transitions        []Transition
	arguments          map[string]params.Params
	initialState       string
	finalStates        []string
	goal               params.Params
	stateTimeout       time.Duration
	maxSteps           int
	enableCancellation bool
	logger             Logger
}

// NewEngine builds every state of config through factory and wires the
// outcome transitions. Builders may block until their endpoints are up.
// If factory is nil, a new default factory is created.
func NewEngine(ctx context.Context, config *Config, factory *StateFactory) (*Engine, error) {
	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	engine := newEngine(config)

	if factory == nil {
		factory = NewStateFactory()
	}

	for _, stateConfig := range config.States {
		state, err := factory.Create(ctx, stateConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build state %s: %w", stateConfig.Name, err)
		}

		engine.RegisterState(state)
		engine.registerStateConfig(stateConfig)
	}

	return engine, nil
}

func newEngine(config *Config) *Engine {
	return &Engine{
		name:               config.Name,
		states:             make(map[string]State),
		arguments:          make(map[string]params.Params),
		initialState:       config.InitialState,
		finalStates:        config.FinalStates,
		goal:               config.Goal.Clone(),
		enableCancellation: true,
		logger:             NewDefaultLogger(),
	}
}

func (e *Engine) registerStateConfig(config StateConfig) {
	if config.Arguments.Len() > 0 {
		e.SetArguments(config.Name, config.Arguments)
	}

	// Sorted so that registration order does not depend on map iteration.
	outcomes := make([]string, 0, len(config.Transitions))
	for outcome := range config.Transitions {
		outcomes = append(outcomes, outcome)
	}

	slices.Sort(outcomes)

	for _, outcome := range outcomes {
		e.RegisterTransition(NewOutcomeTransition(config.Name, outcome, config.Transitions[outcome]))
	}
}

// Name returns the scenario name.
func (e *Engine) Name() string {
	return e.name
}

// NewContext returns a fresh context seeded with the scenario's goal and a new run ID.
func (e *Engine) NewContext() *Context {
	smCtx := NewContext(uuid.NewString(), e.goal)
	smCtx.Scenario = e.name

	return smCtx
}

// Execute runs the state machine to completion. Outcomes such as "failed"
// are ordinary labels; an error means the run itself could not continue.
func (e *Engine) Execute(ctx context.Context, smCtx *Context) (err error) {
	if smCtx.Scenario == "" {
		smCtx.Scenario = e.name
	}

	ctx, span := startExecutionSpan(ctx, smCtx)

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("final_state", smCtx.CurrentState))
			span.SetStatus(codes.Ok, "completed")
		}

		span.End()
	}()

	executionStart := time.Now()

	ctx = context.WithValue(ctx, stateMachineContextKey, smCtx)

	defer func() {
		result := smCtx.CurrentState
		if err != nil {
			result = outcomeError
		}

		scenario := sanitizeScenario(smCtx.Scenario)
		executionDuration.WithLabelValues(scenario, result).Observe(time.Since(executionStart).Seconds())
		pathLength.WithLabelValues(scenario, result).Observe(float64(len(smCtx.Path())))

		if e.logger != nil {
			e.logger.ExecutionFinished(ctx, smCtx.CurrentState, smCtx.Path(), time.Since(executionStart), err)
		}
	}()

	if smCtx.CurrentState == "" {
		smCtx.CurrentState = e.initialState
	}

	var pending params.Params

	for step := 0; ; step++ {
		if e.enableCancellation {
			select {
			case <-ctx.Done():
				executionsCancelledTotal.WithLabelValues(sanitizeScenario(smCtx.Scenario), smCtx.CurrentState).Inc()

				return WrapStateError(smCtx.CurrentState, ctx.Err())
			default:
			}
		}

		if e.maxSteps > 0 && step >= e.maxSteps {
			return WrapStateError(smCtx.CurrentState, fmt.Errorf("%w: %d", ErrMaxStepsExceeded, e.maxSteps))
		}

		done, next, err := e.step(ctx, smCtx, pending)
		if err != nil || done {
			return err
		}

		pending = next
	}
}

// step executes the current state and moves to the next one. It returns the
// arguments staged for the next state.
func (e *Engine) step(ctx context.Context, smCtx *Context, pending params.Params) (bool, params.Params, error) {
	current := smCtx.CurrentState

	state, exists := e.states[current]
	if !exists {
		return false, params.Params{}, WrapStateError(current, ErrStateNotFound)
	}

	smCtx.AppendToPath(current)

	args := e.arguments[current].Clone()
	args.Merge(pending)
	smCtx.setArguments(args)

	stateCtx, stateSpan := startStateSpan(ctx, current, smCtx)

	if e.logger != nil {
		e.logger.StateEntered(stateCtx, current, args)
	}

	stateStartTime := time.Now()
	result, err := e.executeState(stateCtx, state, smCtx)
	stateElapsed := time.Since(stateStartTime)

	smCtx.setArguments(params.Params{})

	outcome := result.Outcome
	if err != nil {
		outcome = outcomeError
	}

	stateSpan.SetAttributes(
		attribute.Int64("duration_ms", stateElapsed.Milliseconds()),
		attribute.String("outcome", sanitizeOutcome(outcome)),
	)

	if err != nil {
		stateSpan.RecordError(err)
		stateSpan.SetStatus(codes.Error, err.Error())
	} else {
		stateSpan.SetStatus(codes.Ok, "completed")
	}

	stateSpan.End()

	if e.logger != nil {
		e.logger.StateExited(stateCtx, current, outcome, stateElapsed, err)
	}

	scenario := sanitizeScenario(smCtx.Scenario)
	stateVisitsTotal.WithLabelValues(scenario, current, sanitizeOutcome(outcome)).Inc()
	stateDuration.WithLabelValues(scenario, current, sanitizeOutcome(outcome)).Observe(stateElapsed.Seconds())

	if err != nil {
		return false, params.Params{}, WrapStateError(current, err)
	}

	if result.Complete || slices.Contains(e.finalStates, current) {
		return true, params.Params{}, nil
	}

	nextState, err := e.findTransition(ctx, smCtx, result)
	if err != nil {
		return false, params.Params{}, err
	}

	if e.logger != nil {
		e.logger.TransitionExecuted(ctx, current, nextState, result.Outcome)
	}

	transitionTotal.WithLabelValues(scenario, current, nextState, sanitizeOutcome(result.Outcome)).Inc()

	smCtx.AddTransition(current, nextState, result.Outcome, result.Data)
	smCtx.CurrentState = nextState
	smCtx.Merge(result.Data)

	return false, result.Args, nil
}

// RegisterState registers a state with the engine.
func (e *Engine) RegisterState(state State) {
	e.states[state.Name()] = state
}

// RegisterTransition registers a transition with the engine.
func (e *Engine) RegisterTransition(transition Transition) {
	e.transitions = append(e.transitions, transition)
}

// SetArguments sets the activation arguments handed to state on every entry.
func (e *Engine) SetArguments(state string, args params.Params) {
	e.arguments[state] = args.Clone()
}

// SetStateTimeout bounds each state execution. A timeout of 0 means no bound
// beyond what the state applies itself.
func (e *Engine) SetStateTimeout(timeout time.Duration) {
	e.stateTimeout = timeout
}

// SetMaxSteps stops runs that visit more than n states. 0 means unlimited.
func (e *Engine) SetMaxSteps(n int) {
	e.maxSteps = n
}

// SetCancellationEnabled enables or disables context cancellation handling.
func (e *Engine) SetCancellationEnabled(enabled bool) {
	e.enableCancellation = enabled
}

// SetLogger sets the logger for state machine execution. nil disables logging.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// States returns the registered state names, sorted.
func (e *Engine) States() []string {
	names := make([]string, 0, len(e.states))
	for name := range e.states {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// State returns the registered state with the given name.
func (e *Engine) State(name string) (State, bool) {
	s, ok := e.states[name]

	return s, ok
}

func (e *Engine) executeState(ctx context.Context, state State, smCtx *Context) (TransitionResult, error) {
	execCtx := ctx

	if e.stateTimeout > 0 {
		var cancel context.CancelFunc

		execCtx, cancel = context.WithTimeout(ctx, e.stateTimeout)
		defer cancel()
	}

	return state.Execute(execCtx, smCtx)
}

// findTransition finds the next state for result.
func (e *Engine) findTransition(ctx context.Context, smCtx *Context, result TransitionResult) (string, error) {
	currentState := smCtx.CurrentState

	if result.NextState != "" {
		for _, transition := range e.transitions {
			if transition.From() != currentState || transition.To() != result.NextState {
				continue
			}

			valid, err := transition.Condition(ctx, smCtx, result)
			if err != nil {
				return "", WrapTransitionError(currentState, result.NextState, result.Outcome, err)
			}

			if valid {
				return result.NextState, nil
			}
		}
	}

	for _, transition := range e.transitions {
		if transition.From() != currentState {
			continue
		}

		valid, err := transition.Condition(ctx, smCtx, result)
		if err != nil {
			return "", WrapTransitionError(currentState, transition.To(), result.Outcome, err)
		}

		if valid {
			return transition.To(), nil
		}
	}

	return "", WrapTransitionError(currentState, "", result.Outcome, ErrTransitionNotFound)
}
