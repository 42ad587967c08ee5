package actionstate

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/params"
)

// Kinds of the built-in action states.
const (
	KindPlaceObject      = "place_object"
	KindPickObject       = "pick_object"
	KindPerceiveLocation = "perceive_location"
	KindMoveBase         = "move_base"
	KindInsertObject     = "insert_object"
	KindStageObject      = "stage_object"
	KindUnstageObject    = "unstage_object"
	KindPerceiveCavity   = "perceive_cavity"
)

const (
	navigationTimeout   = 15 * time.Second
	manipulationTimeout = 30 * time.Second

	defaultObjCategory    = "atwork"
	defaultPerceptionMode = "three_view"
	defaultPlatform       = "platform_middle"
	armSafePosition       = "barrier_tape"
)

// Parameter and shared-context keys understood by the built-in states.
const (
	KeyLocation            = "location"
	KeyDestinationLocation = "destination_location"
	KeyArmSafePosition     = "arm_safe_position"
	KeyObject              = "object"
	KeyObjCategory         = "obj_category"
	KeyRobotPlatform       = "robot_platform"
	KeyHole                = "hole"
	KeyPlatform            = "platform"
	KeyPeg                 = "peg"
	KeyPerceptionMode      = "perception_mode"
	KeyContainer           = "container"
)

// InputGoal is the shared-context field read by states that inherit parameters.
const InputGoal = "goal"

// PlaceObjectSpec places the held object on platform.
func PlaceObjectSpec(platform string) Spec {
	return Spec{
		Name:     KindPlaceObject,
		Endpoint: "place_object_server",
		Timeout:  navigationTimeout,
		Keys: []KeySpec{
			{Key: KeyLocation, Fixed: String(platform), Normalize: true, Required: true},
		},
	}
}

// PickObjectSpec picks whichever object the whole-body controller finds.
func PickObjectSpec() Spec {
	return Spec{
		Name:     KindPickObject,
		Endpoint: "wbc_pick_object_server",
		Timeout:  manipulationTimeout,
		Keys: []KeySpec{
			{Key: KeyObject, Fixed: String("any"), Required: true},
		},
	}
}

// PerceiveLocationSpec perceives objects of category at the current location.
// An empty category means "atwork". To send an empty category, build the
// state through PresetSpec with obj_category present and empty; only an
// omitted argument falls back to the default there.
func PerceiveLocationSpec(category string) Spec {
	if category == "" {
		category = defaultObjCategory
	}

	return perceiveLocationSpec(category)
}

func perceiveLocationSpec(category string) Spec {
	return Spec{
		Name:     KindPerceiveLocation,
		Endpoint: "perceive_location_server",
		Timeout:  manipulationTimeout,
		Keys: []KeySpec{
			{Key: KeyObjCategory, Fixed: String(category), Required: true},
		},
	}
}

// MoveBaseSpec drives the base to destination. With a nil destination the
// target comes from the activation arguments or the shared goal, preferring
// destination_location over location. Without any, the goal is never sent.
func MoveBaseSpec(destination *string) Spec {
	return Spec{
		Name:     KindMoveBase,
		Endpoint: "move_base_safe_server",
		Timeout:  navigationTimeout,
		Keys: []KeySpec{
			{Key: KeyArmSafePosition, Fixed: String(armSafePosition)},
			{
				Key:         KeyDestinationLocation,
				Fixed:       destination,
				ContextKeys: []string{KeyDestinationLocation, KeyLocation},
				Required:    true,
				Normalize:   true,
			},
		},
		InputKeys: []string{InputGoal},
	}
}

// InsertObjectSpec inserts the held object into container on robotPlatform.
func InsertObjectSpec(robotPlatform, container string) Spec {
	return Spec{
		Name:     KindInsertObject,
		Endpoint: "insert_object_server",
		Timeout:  manipulationTimeout,
		Keys: []KeySpec{
			{Key: KeyRobotPlatform, Fixed: String(robotPlatform), Normalize: true, Required: true},
			{Key: KeyHole, Fixed: String(container), Normalize: true, Required: true},
		},
	}
}

func stagingSpec(name, endpoint string, platform *string) Spec {
	return Spec{
		Name:     name,
		Endpoint: endpoint,
		Timeout:  manipulationTimeout,
		Keys: []KeySpec{
			{
				Key:         KeyPlatform,
				Fixed:       platform,
				ContextKeys: []string{KeyPlatform},
				Default:     String(defaultPlatform),
				Normalize:   true,
			},
			{Key: KeyObject, ContextKeys: []string{KeyPeg}, Normalize: true},
		},
		InputKeys: []string{InputGoal},
	}
}

// StageObjectSpec stages the held object on a robot platform. A nil platform
// is taken from the shared goal, falling back to platform_middle.
func StageObjectSpec(platform *string) Spec {
	return stagingSpec(KindStageObject, "stage_object_server", platform)
}

// UnstageObjectSpec picks an object back up from a robot platform.
func UnstageObjectSpec(platform *string) Spec {
	return stagingSpec(KindUnstageObject, "unstage_object_server", platform)
}

// PerceiveCavitySpec looks for cavities. An empty mode means "three_view";
// PresetSpec keeps an explicitly empty perception_mode as given.
func PerceiveCavitySpec(mode string) Spec {
	if mode == "" {
		mode = defaultPerceptionMode
	}

	return perceiveCavitySpec(mode)
}

func perceiveCavitySpec(mode string) Spec {
	return Spec{
		Name:     KindPerceiveCavity,
		Endpoint: "perceive_cavity_server",
		Timeout:  manipulationTimeout,
		Keys: []KeySpec{
			{Key: KeyPerceptionMode, Fixed: String(mode), Required: true},
		},
	}
}

// NewPlaceObject binds a place_object state. See PlaceObjectSpec.
func NewPlaceObject(ctx context.Context, c actionlib.Client, platform string, opts ...Option) (*Adapter, error) {
	return New(ctx, c, PlaceObjectSpec(platform), opts...)
}

// NewPickObject binds a pick_object state.
func NewPickObject(ctx context.Context, c actionlib.Client, opts ...Option) (*Adapter, error) {
	return New(ctx, c, PickObjectSpec(), opts...)
}

// NewPerceiveLocation binds a perceive_location state.
func NewPerceiveLocation(ctx context.Context, c actionlib.Client, category string, opts ...Option) (*Adapter, error) {
	return New(ctx, c, PerceiveLocationSpec(category), opts...)
}

// NewMoveBase binds a move_base state. See MoveBaseSpec.
func NewMoveBase(ctx context.Context, c actionlib.Client, destination *string, opts ...Option) (*Adapter, error) {
	return New(ctx, c, MoveBaseSpec(destination), opts...)
}

// NewInsertObject binds an insert_object state.
func NewInsertObject(
	ctx context.Context, c actionlib.Client, robotPlatform, container string, opts ...Option,
) (*Adapter, error) {
	return New(ctx, c, InsertObjectSpec(robotPlatform, container), opts...)
}

// NewStageObject binds a stage_object state.
func NewStageObject(ctx context.Context, c actionlib.Client, platform *string, opts ...Option) (*Adapter, error) {
	return New(ctx, c, StageObjectSpec(platform), opts...)
}

// NewUnstageObject binds an unstage_object state.
func NewUnstageObject(ctx context.Context, c actionlib.Client, platform *string, opts ...Option) (*Adapter, error) {
	return New(ctx, c, UnstageObjectSpec(platform), opts...)
}

// NewPerceiveCavity binds a perceive_cavity state.
func NewPerceiveCavity(ctx context.Context, c actionlib.Client, mode string, opts ...Option) (*Adapter, error) {
	return New(ctx, c, PerceiveCavitySpec(mode), opts...)
}

// SpecBuilder turns construction arguments (as found in scenario files) into a spec.
type SpecBuilder func(args params.Params) (Spec, error)

func optional(args params.Params, key string) *string {
	if v, ok := args.Get(key); ok {
		return String(v)
	}

	return nil
}

// optionalOr returns the argument for key, or def when it is omitted. A
// present but empty argument is kept.
func optionalOr(args params.Params, key, def string) string {
	if v, ok := args.Get(key); ok {
		return v
	}

	return def
}

func required(kind string, args params.Params, key string) (string, error) {
	v, ok := args.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s needs %q", ErrMissingArgument, kind, key)
	}

	return v, nil
}

// Preset describes a built-in action state.
type Preset struct {
	Kind     string
	Endpoint string
	Timeout  time.Duration
	// Args lists the construction arguments the preset understands.
	Args  []string
	Build SpecBuilder
}

var presets = []Preset{ //nolint:gochecknoglobals
	{
		Kind: KindPlaceObject, Endpoint: "place_object_server", Timeout: navigationTimeout,
		Args: []string{KeyPlatform},
		Build: func(args params.Params) (Spec, error) {
			platform, err := required(KindPlaceObject, args, KeyPlatform)
			if err != nil {
				return Spec{}, err
			}

			return PlaceObjectSpec(platform), nil
		},
	},
	{
		Kind: KindPickObject, Endpoint: "wbc_pick_object_server", Timeout: manipulationTimeout,
		Build: func(params.Params) (Spec, error) {
			return PickObjectSpec(), nil
		},
	},
	{
		Kind: KindPerceiveLocation, Endpoint: "perceive_location_server", Timeout: manipulationTimeout,
		Args: []string{KeyObjCategory},
		Build: func(args params.Params) (Spec, error) {
			return perceiveLocationSpec(optionalOr(args, KeyObjCategory, defaultObjCategory)), nil
		},
	},
	{
		Kind: KindMoveBase, Endpoint: "move_base_safe_server", Timeout: navigationTimeout,
		Args: []string{KeyDestinationLocation},
		Build: func(args params.Params) (Spec, error) {
			return MoveBaseSpec(optional(args, KeyDestinationLocation)), nil
		},
	},
	{
		Kind: KindInsertObject, Endpoint: "insert_object_server", Timeout: manipulationTimeout,
		Args: []string{KeyRobotPlatform, KeyContainer},
		Build: func(args params.Params) (Spec, error) {
			robotPlatform, err := required(KindInsertObject, args, KeyRobotPlatform)
			if err != nil {
				return Spec{}, err
			}

			container, err := required(KindInsertObject, args, KeyContainer)
			if err != nil {
				return Spec{}, err
			}

			return InsertObjectSpec(robotPlatform, container), nil
		},
	},
	{
		Kind: KindStageObject, Endpoint: "stage_object_server", Timeout: manipulationTimeout,
		Args: []string{KeyPlatform},
		Build: func(args params.Params) (Spec, error) {
			return StageObjectSpec(optional(args, KeyPlatform)), nil
		},
	},
	{
		Kind: KindUnstageObject, Endpoint: "unstage_object_server", Timeout: manipulationTimeout,
		Args: []string{KeyPlatform},
		Build: func(args params.Params) (Spec, error) {
			return UnstageObjectSpec(optional(args, KeyPlatform)), nil
		},
	},
	{
		Kind: KindPerceiveCavity, Endpoint: "perceive_cavity_server", Timeout: manipulationTimeout,
		Args: []string{KeyPerceptionMode},
		Build: func(args params.Params) (Spec, error) {
			return perceiveCavitySpec(optionalOr(args, KeyPerceptionMode, defaultPerceptionMode)), nil
		},
	},
}

// Presets returns the registry of built-in action states, sorted by kind.
func Presets() []Preset {
	out := slices.Clone(presets)
	slices.SortFunc(out, func(a, b Preset) int {
		return strings.Compare(a.Kind, b.Kind)
	})

	return out
}

// Kinds returns the names of the built-in action states, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(presets))
	for _, p := range Presets() {
		kinds = append(kinds, p.Kind)
	}

	return kinds
}

// LookupPreset finds a built-in action state by kind.
func LookupPreset(kind string) (Preset, bool) {
	i := slices.IndexFunc(presets, func(p Preset) bool { return p.Kind == kind })
	if i < 0 {
		return Preset{}, false
	}

	return presets[i], true
}

// PresetSpec builds the Spec of a built-in state from construction arguments.
func PresetSpec(kind string, args params.Params) (Spec, error) {
	p, ok := LookupPreset(kind)
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	return p.Build(args)
}

// NewPreset binds a built-in state by kind, dialing its endpoint through d.
func NewPreset(
	ctx context.Context, d actionlib.Dialer, kind string, args params.Params, opts ...Option,
) (*Adapter, error) {
	spec, err := PresetSpec(kind, args)
	if err != nil {
		return nil, err
	}

	client, err := d.Dial(spec.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", spec.Endpoint, err)
	}

	return New(ctx, client, spec, opts...)
}
