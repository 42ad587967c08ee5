package statemachine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const navigateYAML = `
name: navigate
initialState: go_to_ws
finalStates: [done, aborted]
goal:
  location: wp3
  peg: m20
states:
  - name: go_to_ws
    type: action
    action:
      kind: move_base
      timeout: 20s
    transitions:
      success: done
      failed: aborted
  - name: done
    type: final
  - name: aborted
    type: final
`

func TestLoadConfigFromBytes(t *testing.T) {
	t.Parallel()

	config, err := LoadConfigFromBytes([]byte(navigateYAML))
	require.NoError(t, err)

	assert.Equal(t, "navigate", config.Name)
	assert.Equal(t, []string{"location", "peg"}, config.Goal.Keys())
	require.Len(t, config.States, 3)

	action := config.States[0].Action
	require.NotNil(t, action)
	assert.Equal(t, "move_base", action.Kind)

	timeout, err := action.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, timeout)

	assert.True(t, config.IsFinal("done"))
	assert.False(t, config.IsFinal("go_to_ws"))
	assert.Empty(t, config.UnreachableStates())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	action := func(name string, transitions map[string]string) StateConfig {
		return StateConfig{
			Name:        name,
			Type:        StateTypeAction,
			Action:      &ActionConfig{Kind: KindNoop},
			Transitions: transitions,
		}
	}
	final := StateConfig{Name: "done", Type: StateTypeFinal}

	tests := []struct {
		name   string
		config Config
		want   error
	}{
		{
			name:   "missing name",
			config: Config{InitialState: "a"},
			want:   ErrConfigNameRequired,
		},
		{
			name:   "missing initial state",
			config: Config{Name: "x"},
			want:   ErrInitialStateRequired,
		},
		{
			name:   "no final states",
			config: Config{Name: "x", InitialState: "a"},
			want:   ErrFinalStateRequired,
		},
		{
			name:   "initial state unknown",
			config: Config{Name: "x", InitialState: "a", FinalStates: []string{"done"}, States: []StateConfig{final}},
			want:   ErrInitialStateNotFound,
		},
		{
			name: "duplicate state",
			config: Config{Name: "x", InitialState: "done", FinalStates: []string{"done"}, States: []StateConfig{
				final, final,
			}},
			want: ErrDuplicateStateName,
		},
		{
			name: "action without kind",
			config: Config{Name: "x", InitialState: "a", FinalStates: []string{"done"}, States: []StateConfig{
				{Name: "a", Type: StateTypeAction, Transitions: map[string]string{"success": "done"}}, final,
			}},
			want: ErrActionStateMissingAction,
		},
		{
			name: "action without transitions",
			config: Config{Name: "x", InitialState: "a", FinalStates: []string{"done"}, States: []StateConfig{
				action("a", nil), final,
			}},
			want: ErrActionStateMissingTransitions,
		},
		{
			name: "transition to unknown state",
			config: Config{Name: "x", InitialState: "a", FinalStates: []string{"done"}, States: []StateConfig{
				action("a", map[string]string{"success": "nowhere"}), final,
			}},
			want: ErrTransitionToNotFound,
		},
		{
			name: "unknown type",
			config: Config{Name: "x", InitialState: "a", FinalStates: []string{"done"}, States: []StateConfig{
				{Name: "a", Type: "composite"}, final,
			}},
			want: ErrUnknownStateType,
		},
		{
			name: "bad timeout",
			config: Config{Name: "x", InitialState: "a", FinalStates: []string{"done"}, States: []StateConfig{
				{
					Name: "a", Type: StateTypeAction,
					Action:      &ActionConfig{Kind: KindNoop, Timeout: "-3s"},
					Transitions: map[string]string{"success": "done"},
				},
				final,
			}},
			want: ErrInvalidTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnreachableStates(t *testing.T) {
	t.Parallel()

	config := &Config{
		Name:         "x",
		InitialState: "a",
		FinalStates:  []string{"done", "orphan"},
		States: []StateConfig{
			{Name: "a", Type: StateTypeAction, Action: &ActionConfig{Kind: KindNoop}, Transitions: map[string]string{
				"success": "done",
			}},
			{Name: "done", Type: StateTypeFinal},
			{Name: "orphan", Type: StateTypeFinal},
		},
	}

	require.NoError(t, config.Validate())
	assert.Equal(t, []string{"orphan"}, config.UnreachableStates())
}

func TestLoadConfig_Path(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "navigate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(navigateYAML), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "navigate", config.Name)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

type mapLoader map[string]string

func (m mapLoader) LoadByName(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, errors.New("not found")
	}

	return []byte(data), nil
}

func (m mapLoader) ListAvailable() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}

	return names
}

// Cannot run in parallel: swaps the global config loader.
//
//nolint:paralleltest
func TestLoadConfig_Name(t *testing.T) {
	SetConfigLoader(nil)

	_, err := LoadConfig("navigate")
	require.ErrorIs(t, err, ErrNoConfigLoader)

	SetConfigLoader(mapLoader{"navigate": navigateYAML})
	t.Cleanup(func() { SetConfigLoader(nil) })

	config, err := LoadConfig("navigate")
	require.NoError(t, err)
	assert.Equal(t, "navigate", config.Name)

	_, err = LoadConfig("pick_and_place")
	require.ErrorContains(t, err, "available: [navigate]")
}
