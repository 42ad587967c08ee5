package actionstate

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissingParameter means a required parameter had no value in any resolution tier.
	ErrMissingParameter = errors.New("required parameter not specified")
	// ErrInvalidSpec means an adapter specification failed validation.
	ErrInvalidSpec = errors.New("invalid action state spec")
	// ErrDuplicateKey means a spec declares the same parameter twice.
	ErrDuplicateKey = errors.New("duplicate parameter key")
	// ErrUnknownKind means no preset is registered under the requested kind.
	ErrUnknownKind = errors.New("unknown action state kind")
	// ErrMissingArgument means a preset was built without a mandatory construction argument.
	ErrMissingArgument = errors.New("missing construction argument")
)

// Spec configures one adapter: which endpoint it calls, how long it waits and
// how each outgoing parameter is resolved.
type Spec struct {
	// Name identifies the adapter in logs, metrics and state machines.
	Name string `validate:"required"`
	// Endpoint is the action server the adapter binds to.
	Endpoint string `validate:"required"`
	// Timeout bounds the wait for the remote goal to finish.
	Timeout time.Duration `validate:"gt=0"`
	// Keys lists the outgoing parameters in wire order.
	Keys []KeySpec `validate:"dive"`
	// InputKeys names the shared-context fields the adapter reads.
	InputKeys []string
}

// KeySpec describes how one outgoing parameter is resolved. Tiers are tried in
// order: Fixed, the activation arguments, ContextKeys, Default.
type KeySpec struct {
	Key string `validate:"required"`

	// Fixed is a construction-time value. When non-nil it always wins.
	Fixed *string
	// ContextKeys are looked up in the shared goal, first match wins.
	ContextKeys []string `validate:"dive,required"`
	// Default is used, with a warning, when no other tier has a value.
	Default *string
	// Required fails the activation when no tier yields a value.
	Required bool
	// Normalize upper-cases the value before it is sent.
	Normalize bool
}

// String returns a pointer to v, for filling Fixed and Default.
func String(v string) *string {
	return &v
}

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

// Validate checks that s is usable.
func (s Spec) Validate() error {
	err := validate.Struct(s)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSpec, s.Name, err)
	}

	seen := make(map[string]struct{}, len(s.Keys))

	for _, k := range s.Keys {
		if _, ok := seen[k.Key]; ok {
			return fmt.Errorf("%w: %s: %w: %s", ErrInvalidSpec, s.Name, ErrDuplicateKey, k.Key)
		}

		seen[k.Key] = struct{}{}
	}

	return nil
}

// Clone returns a deep copy so callers can tweak a preset without aliasing.
func (s Spec) Clone() Spec {
	out := s
	out.Keys = make([]KeySpec, len(s.Keys))

	for i, k := range s.Keys {
		out.Keys[i] = k
		out.Keys[i].ContextKeys = append([]string(nil), k.ContextKeys...)

		if k.Fixed != nil {
			out.Keys[i].Fixed = String(*k.Fixed)
		}

		if k.Default != nil {
			out.Keys[i].Default = String(*k.Default)
		}
	}

	out.InputKeys = append([]string(nil), s.InputKeys...)

	return out
}

// ReadsContext reports whether any key is resolved from the shared goal.
func (s Spec) ReadsContext() bool {
	for _, k := range s.Keys {
		if len(k.ContextKeys) > 0 {
			return true
		}
	}

	return false
}
