package statemachine

import (
	"testing"

	"github.com/mir-robotics/actionstates/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_GoalIsCopied(t *testing.T) {
	t.Parallel()

	goal := params.New(params.KeyValue{Key: "location", Value: "wp3"})
	smCtx := NewContext("run-1", goal)

	goal.Set("location", "changed")

	loc, ok := smCtx.Snapshot().Get("location")
	require.True(t, ok)
	assert.Equal(t, "wp3", loc)

	smCtx.SetGoal("platform", "platform_left")
	assert.True(t, smCtx.Snapshot().Has("platform"))
}

func TestContext_Clone(t *testing.T) {
	t.Parallel()

	smCtx := NewContext("run-1", params.New(params.KeyValue{Key: "peg", Value: "m20"}))
	smCtx.Set("attempts", 1)
	smCtx.AppendToPath("move")
	smCtx.AddTransition("move", "done", OutcomeSuccess, map[string]any{"k": "v"})

	clone := smCtx.Clone()
	clone.Set("attempts", 2)
	clone.AppendToPath("done")
	clone.SetGoal("peg", "m30")

	attempts, _ := smCtx.Get("attempts")
	assert.Equal(t, 1, attempts)
	assert.Equal(t, []string{"move"}, smCtx.Path())

	peg, _ := smCtx.Snapshot().Get("peg")
	assert.Equal(t, "m20", peg)

	require.Len(t, clone.History, 1)
	assert.Equal(t, OutcomeSuccess, clone.History[0].Outcome)
}

func TestContext_Merge(t *testing.T) {
	t.Parallel()

	smCtx := NewContext("run-1", params.Params{})
	smCtx.Merge(map[string]any{"move.status": "SUCCEEDED", "move.duration_ms": int64(12)})

	status, ok := smCtx.GetString("move.status")
	require.True(t, ok)
	assert.Equal(t, "SUCCEEDED", status)

	_, ok = smCtx.GetString("move.duration_ms")
	assert.False(t, ok)
}
