package actionstate

import (
	"testing"

	"github.com/mir-robotics/actionstates/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kv(pairs ...string) params.Params {
	var p params.Params
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Add(pairs[i], pairs[i+1])
	}

	return p
}

func TestResolve_Precedence(t *testing.T) {
	t.Parallel()

	key := func(fixed, def *string) Spec {
		return Spec{
			Name:     "sample",
			Endpoint: "sample_server",
			Timeout:  1,
			Keys: []KeySpec{{
				Key:         "destination_location",
				Fixed:       fixed,
				ContextKeys: []string{"destination_location", "location"},
				Default:     def,
				Required:    true,
			}},
		}
	}

	tests := []struct {
		name       string
		spec       Spec
		goal       params.Params
		args       params.Params
		want       string
		wantSource Source
		wantCtxKey string
	}{
		{
			name:       "construction value beats everything",
			spec:       key(String("ws01"), String("home")),
			goal:       kv("destination_location", "ws02", "location", "ws03"),
			args:       kv("destination_location", "ws04"),
			want:       "ws01",
			wantSource: SourceFixed,
		},
		{
			name:       "runtime argument beats context",
			spec:       key(nil, String("home")),
			goal:       kv("destination_location", "ws02", "location", "ws03"),
			args:       kv("destination_location", "ws04"),
			want:       "ws04",
			wantSource: SourceArgument,
		},
		{
			name:       "primary context key beats secondary",
			spec:       key(nil, String("home")),
			goal:       kv("location", "ws03", "destination_location", "ws02"),
			want:       "ws02",
			wantSource: SourceContext,
			wantCtxKey: "destination_location",
		},
		{
			name:       "secondary context key",
			spec:       key(nil, String("home")),
			goal:       kv("location", "ws03"),
			want:       "ws03",
			wantSource: SourceContext,
			wantCtxKey: "location",
		},
		{
			name:       "first of duplicate context keys",
			spec:       key(nil, nil),
			goal:       kv("location", "first", "location", "second"),
			want:       "first",
			wantSource: SourceContext,
			wantCtxKey: "location",
		},
		{
			name:       "default",
			spec:       key(nil, String("home")),
			goal:       kv("platform", "ws03"),
			want:       "home",
			wantSource: SourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := Resolve(tt.spec, tt.goal, tt.args)
			require.NoError(t, err)

			got, ok := res.Params.Get("destination_location")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, res.Params.Len())

			require.Len(t, res.Resolved, 1)
			assert.Equal(t, tt.wantSource, res.Resolved[0].Source)
			assert.Equal(t, tt.wantCtxKey, res.Resolved[0].ContextKey)
		})
	}
}

func TestResolve_MissingRequired(t *testing.T) {
	t.Parallel()

	_, err := Resolve(MoveBaseSpec(nil), kv("platform", "x"), params.Params{})
	require.ErrorIs(t, err, ErrMissingParameter)
	assert.ErrorContains(t, err, "destination_location")
}

func TestResolve_OptionalKeyOmitted(t *testing.T) {
	t.Parallel()

	res, err := Resolve(StageObjectSpec(nil), params.Params{}, params.Params{})
	require.NoError(t, err)

	assert.Equal(t, []string{"platform"}, res.Params.Keys())
	assert.Equal(t, []string{"platform"}, res.Defaulted)
	assert.False(t, res.Params.Has("object"))
}

func TestResolve_KeepsSpecOrder(t *testing.T) {
	t.Parallel()

	res, err := Resolve(StageObjectSpec(nil), kv("peg", "m20", "platform", "platform_left"), params.Params{})
	require.NoError(t, err)

	assert.Equal(t, []string{"platform", "object"}, res.Params.Keys())
	assert.Equal(t, "platform=PLATFORM_LEFT, object=M20", res.Params.String())
}

func TestResolve_FixedValueNormalizedOnlyOnTheWire(t *testing.T) {
	t.Parallel()

	spec := InsertObjectSpec("platform_left", "container_a")

	res, err := Resolve(spec, params.Params{}, params.Params{})
	require.NoError(t, err)

	assert.Equal(t, "robot_platform=PLATFORM_LEFT, hole=CONTAINER_A", res.Params.String())
	assert.Equal(t, "platform_left", *spec.Keys[0].Fixed)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "WS01", normalize("ws01"))
	assert.Equal(t, "PLATFORM_MIDDLE", normalize("Platform_Middle"))
	assert.Empty(t, normalize(""))
}
