package statemachine

import (
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/mir-robotics/actionstates/params"
	"gopkg.in/yaml.v3"
)

// State types understood by the engine.
const (
	StateTypeAction = "action"
	StateTypeFinal  = "final"
)

// ConfigLoader is an interface for loading configurations by name.
// Applications can implement this to provide embedded or custom config loading.
type ConfigLoader interface {
	LoadByName(name string) ([]byte, error)
	ListAvailable() []string
}

// defaultConfigLoader is the global config loader used by LoadConfig for bare names.
var defaultConfigLoader ConfigLoader //nolint:gochecknoglobals

// SetConfigLoader sets the default config loader for name-based loading.
func SetConfigLoader(loader ConfigLoader) {
	defaultConfigLoader = loader
}

// Config describes a scenario: the shared goal and the states sequenced by outcome.
type Config struct {
	Name         string        `json:"name"         yaml:"name"`
	InitialState string        `json:"initialState" yaml:"initialState"`
	FinalStates  []string      `json:"finalStates"  yaml:"finalStates"`
	Goal         params.Params `json:"goal"         yaml:"goal"`
	States       []StateConfig `json:"states"       yaml:"states"`
}

// StateConfig defines the configuration for a state.
type StateConfig struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"` // "action" or "final"
	// Action selects the builder and its construction arguments.
	Action *ActionConfig `json:"action,omitempty" yaml:"action,omitempty"`
	// Arguments are handed to the state as activation arguments on every entry.
	Arguments params.Params `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	// Transitions maps outcome labels to the next state.
	Transitions map[string]string `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// ActionConfig names an action kind and its construction arguments.
type ActionConfig struct {
	Kind string        `json:"kind"              yaml:"kind"`
	Args params.Params `json:"args,omitempty"    yaml:"args,omitempty"`
	// Timeout overrides the kind's own bound, e.g. "45s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout. An empty value yields zero.
func (a ActionConfig) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidTimeout, a.Timeout, err)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidTimeout, a.Timeout)
	}

	return d, nil
}

// LoadConfig loads a scenario by path or name.
// Supports two modes:
//   - Path mode: a value containing '/', '\', or ending in '.yaml'/'.yml' is read from the filesystem
//   - Name mode: a bare name is loaded via the registered ConfigLoader
func LoadConfig(pathOrName string) (*Config, error) {
	lower := strings.ToLower(pathOrName)
	isPath := strings.ContainsAny(pathOrName, `/\`) ||
		strings.HasSuffix(lower, ".yaml") ||
		strings.HasSuffix(lower, ".yml")

	if isPath {
		data, err := os.ReadFile(pathOrName) //nolint:gosec // Intentional path-based loading
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", pathOrName, err)
		}

		return LoadConfigFromBytes(data)
	}

	if defaultConfigLoader == nil {
		return nil, ErrNoConfigLoader
	}

	data, err := defaultConfigLoader.LoadByName(pathOrName)
	if err != nil {
		available := defaultConfigLoader.ListAvailable()

		return nil, fmt.Errorf("failed to load config %q (available: %v): %w", pathOrName, available, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes loads a scenario from YAML bytes.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a scenario from an embedded filesystem.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks that the scenario is complete and internally consistent.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrConfigNameRequired
	}

	if c.InitialState == "" {
		return ErrInitialStateRequired
	}

	if len(c.FinalStates) == 0 {
		return ErrFinalStateRequired
	}

	if len(c.States) == 0 {
		return ErrStateRequired
	}

	if !c.stateExists(c.InitialState) {
		return fmt.Errorf("%w: %s", ErrInitialStateNotFound, c.InitialState)
	}

	for _, finalState := range c.FinalStates {
		if !c.stateExists(finalState) {
			return fmt.Errorf("%w: %s", ErrFinalStateNotFound, finalState)
		}
	}

	stateNames := make(map[string]bool)

	for _, state := range c.States {
		err := c.validateState(state, stateNames)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateState(state StateConfig, seen map[string]bool) error {
	if state.Name == "" {
		return ErrStateNameRequired
	}

	if seen[state.Name] {
		return fmt.Errorf("%w: %s", ErrDuplicateStateName, state.Name)
	}

	seen[state.Name] = true

	switch state.Type {
	case "":
		return fmt.Errorf("state %s: %w", state.Name, ErrStateTypeRequired)
	case StateTypeFinal:
	case StateTypeAction:
		if state.Action == nil || state.Action.Kind == "" {
			return fmt.Errorf("state %s: %w", state.Name, ErrActionStateMissingAction)
		}

		if _, err := state.Action.TimeoutDuration(); err != nil {
			return fmt.Errorf("state %s: %w", state.Name, err)
		}

		if len(state.Transitions) == 0 {
			return fmt.Errorf("state %s: %w", state.Name, ErrActionStateMissingTransitions)
		}
	default:
		return fmt.Errorf("state %s: %w: %s", state.Name, ErrUnknownStateType, state.Type)
	}

	for outcome, to := range state.Transitions {
		if outcome == "" {
			return fmt.Errorf("state %s: %w", state.Name, ErrTransitionOutcomeRequired)
		}

		if !c.stateExists(to) {
			return WrapTransitionError(state.Name, "", outcome, fmt.Errorf("%w: %s", ErrTransitionToNotFound, to))
		}
	}

	return nil
}

// stateExists checks if a state with the given name exists.
func (c *Config) stateExists(name string) bool {
	return slices.ContainsFunc(c.States, func(s StateConfig) bool { return s.Name == name })
}

// UnreachableStates lists states no path from the initial state can enter.
func (c *Config) UnreachableStates() []string {
	reachable := c.findReachableStates()

	var out []string

	for _, state := range c.States {
		if !reachable[state.Name] {
			out = append(out, state.Name)
		}
	}

	return out
}

// findReachableStates finds all states reachable from the initial state.
func (c *Config) findReachableStates() map[string]bool {
	byName := make(map[string]StateConfig, len(c.States))
	for _, s := range c.States {
		byName[s.Name] = s
	}

	reachable := map[string]bool{c.InitialState: true}

	queue := []string{c.InitialState}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, to := range byName[current].Transitions {
			if !reachable[to] {
				reachable[to] = true
				queue = append(queue, to)
			}
		}
	}

	return reachable
}

// IsFinal reports whether name is one of the scenario's final states.
func (c *Config) IsFinal(name string) bool {
	return slices.Contains(c.FinalStates, name)
}
