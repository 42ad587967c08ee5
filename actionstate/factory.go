package actionstate

import (
	"context"
	"slices"

	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/statemachine"
)

// RegisterPresets registers every built-in kind on f. Endpoints are dialed
// through d when a scenario is built; opts apply to every adapter.
func RegisterPresets(f *statemachine.StateFactory, d actionlib.Dialer, opts ...Option) {
	for _, p := range presets {
		f.Register(p.Kind, PresetBuilder(p.Kind, d, opts...))
	}
}

// PresetBuilder returns a state builder for one built-in kind. The state is
// named after the scenario state and honours a per-state timeout override.
func PresetBuilder(kind string, d actionlib.Dialer, opts ...Option) statemachine.StateBuilder {
	return func(ctx context.Context, name string, action statemachine.ActionConfig) (statemachine.State, error) {
		timeout, err := action.TimeoutDuration()
		if err != nil {
			return nil, err
		}

		all := append(slices.Clone(opts), WithName(name), WithTimeout(timeout))

		return NewPreset(ctx, d, kind, action.Args, all...)
	}
}
