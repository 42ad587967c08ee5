package actionstate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mir-robotics/actionstates/params"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source tells which resolution tier produced a parameter value.
type Source int

const (
	SourceFixed Source = iota + 1
	SourceArgument
	SourceContext
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceFixed:
		return "fixed"
	case SourceArgument:
		return "argument"
	case SourceContext:
		return "context"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Resolved records where one outgoing parameter came from.
type Resolved struct {
	Key    string
	Value  string
	Source Source
	// ContextKey is the goal key that matched, for SourceContext.
	ContextKey string
}

// Resolution is the outcome of parameter resolution for one activation.
type Resolution struct {
	Params    params.Params
	Resolved  []Resolved
	Defaulted []string
}

// normalize folds identifiers (locations, platforms, containers) to upper case.
// A Caser keeps state, so a fresh one is created per call.
func normalize(v string) string {
	return cases.Upper(language.Und).String(v)
}

// Resolve builds the outgoing parameters from an adapter Spec, the activation
// arguments and the shared goal. It never calls the remote endpoint.
func Resolve(spec Spec, goal, args params.Params) (Resolution, error) {
	res := Resolution{Resolved: make([]Resolved, 0, len(spec.Keys))}

	for _, key := range spec.Keys {
		r, found := resolveKey(key, goal, args)
		if !found {
			if key.Required {
				return res, fmt.Errorf("%w: %s", ErrMissingParameter, key.Key)
			}

			continue
		}

		if key.Normalize {
			r.Value = normalize(r.Value)
		}

		if r.Source == SourceDefault {
			res.Defaulted = append(res.Defaulted, key.Key)
		}

		res.Params.Add(r.Key, r.Value)
		res.Resolved = append(res.Resolved, r)
	}

	return res, nil
}

func resolveKey(key KeySpec, goal, args params.Params) (Resolved, bool) {
	if key.Fixed != nil {
		return Resolved{Key: key.Key, Value: *key.Fixed, Source: SourceFixed}, true
	}

	if v, ok := args.Get(key.Key); ok {
		return Resolved{Key: key.Key, Value: v, Source: SourceArgument}, true
	}

	if ctxKey, v, ok := goal.GetFirst(key.ContextKeys...); ok {
		return Resolved{Key: key.Key, Value: v, Source: SourceContext, ContextKey: ctxKey}, true
	}

	if key.Default != nil {
		return Resolved{Key: key.Key, Value: *key.Default, Source: SourceDefault}, true
	}

	return Resolved{}, false
}

// resolve runs Resolve and reports under-specification on log.
func (a *Adapter) resolve(ctx context.Context, log *slog.Logger, goal, args params.Params) (Resolution, error) {
	res, err := Resolve(a.spec, goal, args)
	if err != nil {
		log.ErrorContext(ctx, "parameter not specified, not calling action server",
			"endpoint", a.spec.Endpoint,
			"error", err)

		return res, err
	}

	for _, key := range res.Defaulted {
		value, _ := res.Params.Get(key)

		log.WarnContext(ctx, "parameter not provided, using default",
			"key", key,
			"value", value)

		parameterDefaults.WithLabelValues(a.name, key).Inc()
	}

	return res, nil
}

// Resolve returns the parameters this adapter would send for goal and args,
// without logging or calling the endpoint.
func (a *Adapter) Resolve(goal, args params.Params) (params.Params, error) {
	res, err := Resolve(a.spec, goal, args)

	return res.Params, err
}
