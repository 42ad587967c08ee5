package actionstate

import (
	"testing"
	"time"

	"github.com/mir-robotics/actionstates/actionlib/actiontest"
	"github.com/mir-robotics/actionstates/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	t.Parallel()

	args := kv(
		KeyPlatform, "platform_left",
		KeyRobotPlatform, "platform_right",
		KeyContainer, "container_b",
	)

	tests := []struct {
		kind     string
		endpoint string
		timeout  time.Duration
		wire     string
	}{
		{KindPlaceObject, "place_object_server", 15 * time.Second, "location=PLATFORM_LEFT"},
		{KindPickObject, "wbc_pick_object_server", 30 * time.Second, "object=any"},
		{KindPerceiveLocation, "perceive_location_server", 30 * time.Second, "obj_category=atwork"},
		{KindMoveBase, "move_base_safe_server", 15 * time.Second, "arm_safe_position=barrier_tape, destination_location=WP1"},
		{KindInsertObject, "insert_object_server", 30 * time.Second, "robot_platform=PLATFORM_RIGHT, hole=CONTAINER_B"},
		{KindStageObject, "stage_object_server", 30 * time.Second, "platform=PLATFORM_LEFT, object=M20"},
		{KindUnstageObject, "unstage_object_server", 30 * time.Second, "platform=PLATFORM_LEFT, object=M20"},
		{KindPerceiveCavity, "perceive_cavity_server", 30 * time.Second, "perception_mode=three_view"},
	}

	goal := kv(KeyLocation, "wp1", KeyPeg, "m20")

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			t.Parallel()

			spec, err := PresetSpec(tt.kind, args)
			require.NoError(t, err)
			require.NoError(t, spec.Validate())

			assert.Equal(t, tt.kind, spec.Name)
			assert.Equal(t, tt.endpoint, spec.Endpoint)
			assert.Equal(t, tt.timeout, spec.Timeout)

			preset, ok := LookupPreset(tt.kind)
			require.True(t, ok)
			assert.Equal(t, tt.endpoint, preset.Endpoint)
			assert.Equal(t, tt.timeout, preset.Timeout)

			res, err := Resolve(spec, goal, params.Params{})
			require.NoError(t, err)
			assert.Equal(t, tt.wire, res.Params.String())
		})
	}
}

func TestKinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		KindInsertObject,
		KindMoveBase,
		KindPerceiveCavity,
		KindPerceiveLocation,
		KindPickObject,
		KindPlaceObject,
		KindStageObject,
		KindUnstageObject,
	}, Kinds())
}

func TestPresetSpec_Errors(t *testing.T) {
	t.Parallel()

	_, err := PresetSpec("teleport", params.Params{})
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = PresetSpec(KindPlaceObject, params.Params{})
	require.ErrorIs(t, err, ErrMissingArgument)

	_, err = PresetSpec(KindInsertObject, kv(KeyRobotPlatform, "platform_left"))
	require.ErrorIs(t, err, ErrMissingArgument)
	assert.ErrorContains(t, err, KeyContainer)
}

func TestPresetDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "atwork", *PerceiveLocationSpec("").Keys[0].Fixed)
	assert.Equal(t, "container", *PerceiveLocationSpec("container").Keys[0].Fixed)
	assert.Equal(t, "three_view", *PerceiveCavitySpec("").Keys[0].Fixed)
	assert.Equal(t, "single_view", *PerceiveCavitySpec("single_view").Keys[0].Fixed)
	assert.Nil(t, StageObjectSpec(nil).Keys[0].Fixed)
	assert.Equal(t, "platform_middle", *UnstageObjectSpec(nil).Keys[0].Default)
}

func TestPresetSpec_EmptyArgumentIsKept(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		key  string
		def  string
	}{
		{KindPerceiveLocation, KeyObjCategory, "atwork"},
		{KindPerceiveCavity, KeyPerceptionMode, "three_view"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			t.Parallel()

			omitted, err := PresetSpec(tt.kind, params.Params{})
			require.NoError(t, err)
			assert.Equal(t, tt.def, *omitted.Keys[0].Fixed)

			empty, err := PresetSpec(tt.kind, kv(tt.key, ""))
			require.NoError(t, err)
			assert.Empty(t, *empty.Keys[0].Fixed)

			res, err := Resolve(empty, params.Params{}, params.Params{})
			require.NoError(t, err)
			assert.Equal(t, tt.key+"=", res.Params.String())
		})
	}
}

func TestNewPreset(t *testing.T) {
	t.Parallel()

	dialer := actiontest.NewDialer(actiontest.Succeed())

	adapter, err := NewPreset(t.Context(), dialer, KindStageObject, kv(KeyPlatform, "platform_right"),
		WithName("stage_on_right"))
	require.NoError(t, err)

	assert.Equal(t, "stage_on_right", adapter.Name())
	assert.Equal(t, Success, adapter.Activate(t.Context(), kv(KeyPlatform, "platform_left"), params.Params{}))

	client := dialer.Client("stage_object_server")
	assert.Equal(t, 1, client.Connects())
	assert.Equal(t, "platform=PLATFORM_RIGHT", sent(t, client).String())

	_, err = NewPreset(t.Context(), dialer, "teleport", params.Params{})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestTypedConstructors(t *testing.T) {
	t.Parallel()

	dialer := actiontest.NewDialer(actiontest.Succeed())
	ctx := t.Context()

	for _, build := range []func() (*Adapter, error){
		func() (*Adapter, error) { return NewPlaceObject(ctx, dialer.Client("place"), "platform_left") },
		func() (*Adapter, error) { return NewPickObject(ctx, dialer.Client("pick")) },
		func() (*Adapter, error) { return NewPerceiveLocation(ctx, dialer.Client("perceive"), "") },
		func() (*Adapter, error) { return NewMoveBase(ctx, dialer.Client("move"), String("ws01")) },
		func() (*Adapter, error) { return NewInsertObject(ctx, dialer.Client("insert"), "platform_left", "c1") },
		func() (*Adapter, error) { return NewStageObject(ctx, dialer.Client("stage"), nil) },
		func() (*Adapter, error) { return NewUnstageObject(ctx, dialer.Client("unstage"), nil) },
		func() (*Adapter, error) { return NewPerceiveCavity(ctx, dialer.Client("cavity"), "") },
	} {
		adapter, err := build()
		require.NoError(t, err)
		assert.Equal(t, Success, adapter.Activate(ctx, kv(KeyLocation, "wp1"), params.Params{}), adapter.Name())
	}
}
