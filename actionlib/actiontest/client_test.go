package actiontest

import (
	"errors"
	"testing"
	"time"

	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goal(k, v string) actionlib.Goal {
	return actionlib.Goal{Parameters: params.New(params.KeyValue{Key: k, Value: v})}
}

func TestClient_NoGoal(t *testing.T) {
	t.Parallel()

	c := New("e", Succeed())

	_, err := c.GetState(t.Context())
	require.ErrorIs(t, err, actionlib.ErrNoActiveGoal)

	_, err = c.WaitForResult(t.Context(), time.Millisecond)
	require.ErrorIs(t, err, actionlib.ErrNoActiveGoal)

	require.ErrorIs(t, c.CancelGoal(t.Context()), actionlib.ErrNoActiveGoal)
}

func TestClient_DelayedResult(t *testing.T) {
	t.Parallel()

	c := New("e", Finish(actionlib.StatusAborted, 20*time.Millisecond))
	require.NoError(t, c.SendGoal(t.Context(), goal("location", "WS01")))

	status, err := c.GetState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, actionlib.StatusActive, status)

	finished, err := c.WaitForResult(t.Context(), time.Second)
	require.NoError(t, err)
	assert.True(t, finished)

	status, err = c.GetState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, actionlib.StatusAborted, status)
}

func TestClient_HangAndCancel(t *testing.T) {
	t.Parallel()

	c := New("e", Hang())
	require.NoError(t, c.SendGoal(t.Context(), goal("object", "any")))

	finished, err := c.WaitForResult(t.Context(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, finished)

	require.NoError(t, c.CancelGoal(t.Context()))
	require.NoError(t, c.CancelGoal(t.Context()))

	status, err := c.GetState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, actionlib.StatusPreempted, status)
	assert.Equal(t, 2, c.CancelCalls())
}

func TestClient_CancelAfterFinishKeepsStatus(t *testing.T) {
	t.Parallel()

	c := New("e", Succeed())
	require.NoError(t, c.SendGoal(t.Context(), goal("object", "any")))
	require.NoError(t, c.CancelGoal(t.Context()))

	status, err := c.GetState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, actionlib.StatusSucceeded, status)
}

func TestClient_RecordsGoals(t *testing.T) {
	t.Parallel()

	c := New("e", Succeed())

	p := params.New(params.KeyValue{Key: "location", Value: "WS01"})
	require.NoError(t, c.SendGoal(t.Context(), actionlib.Goal{Parameters: p}))
	require.NoError(t, c.SendGoal(t.Context(), goal("location", "WS02")))

	p.Set("location", "mutated")

	goals := c.Goals()
	require.Len(t, goals, 2)

	first, _ := goals[0].Parameters.Get("location")
	assert.Equal(t, "WS01", first)

	last, ok := c.LastGoal()
	require.True(t, ok)

	loc, _ := last.Parameters.Get("location")
	assert.Equal(t, "WS02", loc)
	assert.Equal(t, 2, c.SendCalls())
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	errSend := errors.New("send")
	errState := errors.New("state")

	c := New("e", Behavior{SendErr: errSend})
	require.ErrorIs(t, c.SendGoal(t.Context(), goal("a", "b")), errSend)
	assert.Empty(t, c.Goals())

	c.SetBehavior(Behavior{Result: actionlib.StatusSucceeded, StateErr: errState})
	require.NoError(t, c.SendGoal(t.Context(), goal("a", "b")))

	_, err := c.GetState(t.Context())
	require.ErrorIs(t, err, errState)
}

func TestDialer_OneClientPerEndpoint(t *testing.T) {
	t.Parallel()

	d := NewDialer(Succeed())

	a, err := d.Dial("move_base_safe_server")
	require.NoError(t, err)

	b, err := d.Dial("move_base_safe_server")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, "move_base_safe_server", a.Endpoint())
	assert.NotSame(t, d.Client("place_object_server"), a)
}
