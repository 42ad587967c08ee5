package actionlib

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for status, name := range statusNames {
		parsed, err := ParseStatus(name)
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	parsed, err := ParseStatus(" succeeded ")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, parsed)

	_, err = ParseStatus("DONE")
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []GoalStatus{
		StatusPreempted, StatusSucceeded, StatusAborted, StatusRejected, StatusRecalled, StatusLost,
	}
	running := []GoalStatus{StatusPending, StatusActive, StatusPreempting, StatusRecalling}

	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), s.String())
	}

	for _, s := range running {
		assert.False(t, s.IsTerminal(), s.String())
	}
}

func TestStatusJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Status GoalStatus `json:"status"`
	}

	data, err := json.Marshal(body{Status: StatusAborted})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ABORTED"}`, string(data))

	var decoded body
	require.NoError(t, json.Unmarshal([]byte(`{"status":"PREEMPTED"}`), &decoded))
	assert.Equal(t, StatusPreempted, decoded.Status)

	_, err = json.Marshal(body{Status: GoalStatus(42)})
	require.Error(t, err)
	assert.Equal(t, "GoalStatus(42)", GoalStatus(42).String())
}
