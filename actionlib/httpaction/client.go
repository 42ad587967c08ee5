package httpaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/logger"
	"github.com/sethvargo/go-retry"
)

// Client is an actionlib.Client speaking the HTTP action protocol.
type Client struct {
	http     *resty.Client
	endpoint string
	opts     Options

	mu     sync.Mutex
	goalID string
	status actionlib.GoalStatus
}

var _ actionlib.Client = (*Client)(nil)

func (c *Client) Endpoint() string {
	return c.endpoint
}

// GoalID returns the ID of the goal currently tracked, or "" before SendGoal.
func (c *Client) GoalID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.goalID
}

// WaitForServer polls the readiness route with capped exponential backoff
// until the endpoint reports ready or ctx is done.
func (c *Client) WaitForServer(ctx context.Context) error {
	backoff := retry.WithCappedDuration(c.opts.MaxBackoff, retry.NewExponential(c.opts.InitialBackoff))
	attempt := 0

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		var info actionlib.ServerInfo

		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("endpoint", c.endpoint).
			SetResult(&info).
			Get(actionlib.RouteServer)

		switch {
		case err != nil:
			err = fmt.Errorf("%w: %w", actionlib.ErrServerUnavailable, err)
		case resp.IsError():
			err = fmt.Errorf("%w: %s", actionlib.ErrServerUnavailable, describe(resp))
		case !info.Ready:
			err = fmt.Errorf("%w: endpoint %s not ready", actionlib.ErrServerUnavailable, c.endpoint)
		default:
			return nil
		}

		logger.Get(ctx).DebugContext(ctx, "waiting for action server",
			"endpoint", c.endpoint,
			"attempt", attempt,
			"error", err)

		return retry.RetryableError(err)
	})
}

func (c *Client) SendGoal(ctx context.Context, goal actionlib.Goal) error {
	req := actionlib.GoalRequest{
		GoalID:     uuid.NewString(),
		Parameters: goal.Parameters,
	}

	var state actionlib.GoalState

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("endpoint", c.endpoint).
		SetBody(req).
		SetResult(&state).
		SetError(&actionlib.ErrorBody{}).
		Post(actionlib.RouteGoals)
	if err != nil {
		return fmt.Errorf("%w: %w", actionlib.ErrServerUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound, resp.StatusCode() == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", actionlib.ErrServerUnavailable, describe(resp))
	case resp.IsError():
		return fmt.Errorf("%w: %s", actionlib.ErrGoalRejected, describe(resp))
	}

	c.mu.Lock()
	c.goalID = req.GoalID
	c.status = state.Status
	c.mu.Unlock()

	logger.Get(ctx).DebugContext(ctx, "goal accepted",
		"endpoint", c.endpoint,
		"goal_id", req.GoalID,
		"status", state.Status.String())

	return nil
}

// WaitForResult polls the goal every PollInterval until it reaches a terminal
// status or timeout elapses. Poll failures are logged and retried. Polls in
// flight are bound by timeout too, so a slow server can't extend the wait.
func (c *Client) WaitForResult(ctx context.Context, timeout time.Duration) (bool, error) {
	if c.GoalID() == "" {
		return false, actionlib.ErrNoActiveGoal
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.poll(waitCtx)
		if err == nil && status.IsTerminal() {
			return true, nil
		}

		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if waitCtx.Err() != nil {
			return false, nil
		}

		if err != nil {
			logger.Get(ctx).WarnContext(ctx, "goal status poll failed",
				"endpoint", c.endpoint,
				"error", err)
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return false, ctx.Err()
			}

			return false, nil
		case <-ticker.C:
		}
	}
}

// GetState fetches the goal's current status. When the server can't be asked,
// the last status seen is returned along with the error.
func (c *Client) GetState(ctx context.Context) (actionlib.GoalStatus, error) {
	if c.GoalID() == "" {
		return actionlib.StatusLost, actionlib.ErrNoActiveGoal
	}

	status, err := c.poll(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()

		return c.status, err
	}

	return status, nil
}

func (c *Client) CancelGoal(ctx context.Context) error {
	id := c.GoalID()
	if id == "" {
		return actionlib.ErrNoActiveGoal
	}

	var state actionlib.GoalState

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"endpoint": c.endpoint, "id": id}).
		SetResult(&state).
		SetError(&actionlib.ErrorBody{}).
		Post(actionlib.RouteCancel)
	if err != nil {
		return fmt.Errorf("%w: %w", actionlib.ErrServerUnavailable, err)
	}

	if resp.IsError() {
		return fmt.Errorf("cancel goal %s: %s", id, describe(resp))
	}

	c.setStatus(id, state.Status)

	logger.Get(ctx).Log(ctx, slog.LevelInfo, "goal cancel requested",
		"endpoint", c.endpoint,
		"goal_id", id,
		"status", state.Status.String())

	return nil
}

func (c *Client) poll(ctx context.Context) (actionlib.GoalStatus, error) {
	id := c.GoalID()

	var state actionlib.GoalState

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"endpoint": c.endpoint, "id": id}).
		SetResult(&state).
		SetError(&actionlib.ErrorBody{}).
		Get(actionlib.RouteGoal)
	if err != nil {
		return actionlib.StatusLost, fmt.Errorf("%w: %w", actionlib.ErrServerUnavailable, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		// The server no longer knows the goal.
		c.setStatus(id, actionlib.StatusLost)

		return actionlib.StatusLost, nil
	}

	if resp.IsError() {
		return actionlib.StatusLost, errors.New(describe(resp))
	}

	c.setStatus(id, state.Status)

	return state.Status, nil
}

// setStatus records status unless a newer goal has replaced id.
func (c *Client) setStatus(id string, status actionlib.GoalStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.goalID == id {
		c.status = status
	}
}

func describe(resp *resty.Response) string {
	if body, ok := resp.Error().(*actionlib.ErrorBody); ok && body != nil && body.Error != "" {
		return fmt.Sprintf("%s: %s", resp.Status(), body.Error)
	}

	return resp.Status()
}
