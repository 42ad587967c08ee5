package statemachine

import (
	"maps"
	"sync"
	"time"

	"github.com/mir-robotics/actionstates/params"
)

// Context is a thread-safe context object that carries data between states.
// The engine is its only writer while a scenario runs; states read the goal
// through Snapshot.
type Context struct {
	mu           sync.RWMutex
	RunID        string
	Scenario     string
	CurrentState string
	Goal         params.Params
	Data         map[string]any
	History      []StateTransition
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PathHistory  []string // Ordered list of states visited (append CurrentState on entry)

	args params.Params
}

// StateTransition records a transition in the state machine history.
type StateTransition struct {
	From      string
	To        string
	Outcome   string
	Timestamp time.Time
	Data      map[string]any
}

// NewContext creates a new state machine context seeded with goal parameters.
func NewContext(runID string, goal params.Params) *Context {
	now := time.Now()

	return &Context{
		RunID:       runID,
		Goal:        goal.Clone(),
		Data:        make(map[string]any),
		History:     []StateTransition{},
		CreatedAt:   now,
		UpdatedAt:   now,
		PathHistory: []string{},
	}
}

// Snapshot returns a copy of the goal parameters.
func (c *Context) Snapshot() params.Params {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.Goal.Clone()
}

// SetGoal sets a goal parameter, replacing its first occurrence.
func (c *Context) SetGoal(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Goal.Set(key, value)
	c.UpdatedAt = time.Now()
}

// Arguments returns the activation arguments staged for the current state.
func (c *Context) Arguments() params.Params {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.args.Clone()
}

func (c *Context) setArguments(args params.Params) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.args = args
}

// Get retrieves a value from the context data.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.Data[key]

	return val, ok
}

// Set stores a value in the context data.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Data[key] = value
	c.UpdatedAt = time.Now()
}

// GetString retrieves a string value from the context data.
func (c *Context) GetString(key string) (string, bool) {
	val, ok := c.Get(key)
	if !ok {
		return "", false
	}

	str, ok := val.(string)

	return str, ok
}

// Merge merges a map of data into the context.
func (c *Context) Merge(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	maps.Copy(c.Data, data)

	c.UpdatedAt = time.Now()
}

// Clone creates a deep copy of the context.
func (c *Context) Clone() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Context{
		RunID:        c.RunID,
		Scenario:     c.Scenario,
		CurrentState: c.CurrentState,
		Goal:         c.Goal.Clone(),
		Data:         maps.Clone(c.Data),
		History:      make([]StateTransition, len(c.History)),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		PathHistory:  append([]string{}, c.PathHistory...),
		args:         c.args.Clone(),
	}

	if clone.Data == nil {
		clone.Data = make(map[string]any)
	}

	copy(clone.History, c.History)

	return clone
}

// AddTransition records a state transition in the history.
func (c *Context) AddTransition(from, to, outcome string, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	transition := StateTransition{
		From:      from,
		To:        to,
		Outcome:   outcome,
		Timestamp: time.Now(),
		Data:      make(map[string]any),
	}

	maps.Copy(transition.Data, data)

	c.History = append(c.History, transition)
	c.UpdatedAt = time.Now()
}

// AppendToPath adds the current state to the path history.
func (c *Context) AppendToPath(state string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.PathHistory = append(c.PathHistory, state)
	c.UpdatedAt = time.Now()
}

// Path returns a copy of the visited states.
func (c *Context) Path() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string{}, c.PathHistory...)
}
