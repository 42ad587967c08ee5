package httpaction_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/actionlib/httpaction"
	"github.com/mir-robotics/actionstates/actionlib/simserver"
	"github.com/mir-robotics/actionstates/actionstate"
	"github.com/mir-robotics/actionstates/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const script = `
default:
  result: SUCCEEDED
  delay: 20ms
actions:
  insert_object_server:
    result: ABORTED
    delay: 10ms
  wbc_pick_object_server:
    never: true
  perceive_cavity_server:
    reject: true
`

type fixture struct {
	sim    *simserver.Server
	dialer *httpaction.Dialer
}

func newFixture(t *testing.T, opts httpaction.Options) fixture {
	t.Helper()

	s, err := simserver.ParseScript([]byte(script))
	require.NoError(t, err)

	sim, err := simserver.New(t.Context(), s, simserver.Options{Workers: 4})
	require.NoError(t, err)

	ts := httptest.NewServer(sim.Handler())

	t.Cleanup(func() {
		ts.Close()
		sim.Close()
	})

	opts.BaseURL = ts.URL
	if opts.PollInterval == 0 {
		opts.PollInterval = 5 * time.Millisecond
	}

	dialer, err := httpaction.NewDialer(opts)
	require.NoError(t, err)

	return fixture{sim: sim, dialer: dialer}
}

func (f fixture) dial(t *testing.T, endpoint string) *httpaction.Client {
	t.Helper()

	c, err := f.dialer.Dial(endpoint)
	require.NoError(t, err)

	client, ok := c.(*httpaction.Client)
	require.True(t, ok)

	return client
}

func TestNewDialer_BaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "http", baseURL: "http://robot:8080"},
		{name: "https with path", baseURL: "https://robot.local/api/"},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "ftp scheme", baseURL: "ftp://robot", wantErr: true},
		{name: "no scheme", baseURL: "robot:8080", wantErr: true},
		{name: "garbage", baseURL: "::not a url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := httpaction.NewDialer(httpaction.Options{BaseURL: tt.baseURL})
			if tt.wantErr {
				require.ErrorIs(t, err, httpaction.ErrInvalidOptions)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestClient_GoalSucceeds(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{})
	client := f.dial(t, "move_base_safe_server")

	assert.Equal(t, "move_base_safe_server", client.Endpoint())
	require.NoError(t, client.WaitForServer(t.Context()))

	goal := params.New(
		params.KeyValue{Key: "arm_safe_position", Value: "barrier_tape"},
		params.KeyValue{Key: "destination_location", Value: "WP3"},
	)

	require.NoError(t, client.SendGoal(t.Context(), actionlib.Goal{Parameters: goal}))
	require.NotEmpty(t, client.GoalID())

	finished, err := client.WaitForResult(t.Context(), 2*time.Second)
	require.NoError(t, err)
	assert.True(t, finished)

	status, err := client.GetState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, actionlib.StatusSucceeded, status)

	state, err := f.sim.Goal("move_base_safe_server", client.GoalID())
	require.NoError(t, err)
	assert.Equal(t, "arm_safe_position=barrier_tape, destination_location=WP3", state.Parameters.String())
}

func TestClient_GoalAborted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{})
	client := f.dial(t, "insert_object_server")

	require.NoError(t, client.SendGoal(t.Context(), actionlib.Goal{}))

	finished, err := client.WaitForResult(t.Context(), 2*time.Second)
	require.NoError(t, err)
	assert.True(t, finished)

	status, err := client.GetState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, actionlib.StatusAborted, status)
}

func TestClient_Rejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{})
	client := f.dial(t, "perceive_cavity_server")

	require.NoError(t, client.SendGoal(t.Context(), actionlib.Goal{}))

	finished, err := client.WaitForResult(t.Context(), time.Second)
	require.NoError(t, err)
	assert.True(t, finished)

	status, err := client.GetState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, actionlib.StatusRejected, status)
}

func TestClient_TimeoutThenCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{})
	client := f.dial(t, "wbc_pick_object_server")

	require.NoError(t, client.SendGoal(t.Context(), actionlib.Goal{}))

	start := time.Now()
	finished, err := client.WaitForResult(t.Context(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, finished)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	require.NoError(t, client.CancelGoal(t.Context()))

	status, err := client.GetState(t.Context())
	require.NoError(t, err)
	assert.Equal(t, actionlib.StatusPreempted, status)
}

// newSlowStatusServer accepts every goal as ACTIVE and answers status polls
// only after delay or when the request is abandoned.
func newSlowStatusServer(t *testing.T, delay time.Duration) *httpaction.Dialer {
	t.Helper()

	router := gin.New()
	router.POST("/actions/:endpoint/goals", func(c *gin.Context) {
		var req actionlib.GoalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, actionlib.ErrorBody{Error: err.Error()})

			return
		}

		c.JSON(http.StatusAccepted, actionlib.GoalState{GoalID: req.GoalID, Status: actionlib.StatusActive})
	})
	router.GET("/actions/:endpoint/goals/:id", func(c *gin.Context) {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			return
		}

		c.JSON(http.StatusOK, actionlib.GoalState{GoalID: c.Param("id"), Status: actionlib.StatusActive})
	})

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	dialer, err := httpaction.NewDialer(httpaction.Options{
		BaseURL:        ts.URL,
		PollInterval:   5 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
	})
	require.NoError(t, err)

	return dialer
}

func TestClient_WaitForResultBoundsSlowPolls(t *testing.T) {
	t.Parallel()

	c, err := newSlowStatusServer(t, 2*time.Second).Dial("move_base_safe_server")
	require.NoError(t, err)

	require.NoError(t, c.SendGoal(t.Context(), actionlib.Goal{}))

	start := time.Now()
	finished, err := c.WaitForResult(t.Context(), 100*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, finished)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestClient_WaitForResultParentCancelled(t *testing.T) {
	t.Parallel()

	c, err := newSlowStatusServer(t, 2*time.Second).Dial("move_base_safe_server")
	require.NoError(t, err)

	require.NoError(t, c.SendGoal(t.Context(), actionlib.Goal{}))

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	finished, err := c.WaitForResult(ctx, time.Minute)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, finished)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_NoActiveGoal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{})
	client := f.dial(t, "move_base_safe_server")

	_, err := client.WaitForResult(t.Context(), time.Second)
	require.ErrorIs(t, err, actionlib.ErrNoActiveGoal)

	_, err = client.GetState(t.Context())
	require.ErrorIs(t, err, actionlib.ErrNoActiveGoal)

	require.ErrorIs(t, client.CancelGoal(t.Context()), actionlib.ErrNoActiveGoal)

	_, err = f.dialer.Dial("")
	require.ErrorIs(t, err, actionlib.ErrServerUnavailable)
}

func TestClient_ServerUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{})
	f.sim.SetReady(false)

	client := f.dial(t, "move_base_safe_server")

	err := client.SendGoal(t.Context(), actionlib.Goal{})
	require.ErrorIs(t, err, actionlib.ErrServerUnavailable)
	assert.Empty(t, client.GoalID())
}

func TestClient_WaitForServerRetries(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
	})
	f.sim.SetReady(false)

	go func() {
		time.Sleep(100 * time.Millisecond)
		f.sim.SetReady(true)
	}()

	client := f.dial(t, "move_base_safe_server")

	start := time.Now()
	require.NoError(t, client.WaitForServer(t.Context()))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestClient_WaitForServerHonoursContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
	})
	f.sim.SetReady(false)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	err := f.dial(t, "move_base_safe_server").WaitForServer(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdapterOverHTTP(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpaction.Options{CacheDNS: true})

	adapter, err := actionstate.NewPreset(t.Context(), f.dialer, actionstate.KindMoveBase, params.Params{})
	require.NoError(t, err)

	goal := params.New(params.KeyValue{Key: "location", Value: "wp3"})

	result := adapter.Run(t.Context(), goal, params.Params{})
	require.NoError(t, result.Err)
	assert.Equal(t, actionstate.Success, result.Outcome)
	assert.Equal(t, actionlib.StatusSucceeded, result.Status)

	dest, ok := result.Parameters.Get("destination_location")
	require.True(t, ok)
	assert.Equal(t, "WP3", dest)

	pick, err := actionstate.NewPickObject(t.Context(), f.dial(t, "wbc_pick_object_server"),
		actionstate.WithTimeout(30*time.Millisecond))
	require.NoError(t, err)

	result = pick.Run(t.Context(), goal, params.Params{})
	assert.Equal(t, actionstate.Failed, result.Outcome)
	assert.True(t, result.TimedOut)
	assert.True(t, result.Cancelled)
	assert.Equal(t, actionlib.StatusPreempted, result.Status)
}
