// Package actiontest provides a scripted in-memory actionlib.Client for tests.
package actiontest

import (
	"context"
	"sync"
	"time"

	"github.com/mir-robotics/actionstates/actionlib"
	"go.uber.org/atomic"
)

// Behavior scripts how the fake server reacts to goals.
type Behavior struct {
	// Result is the terminal status reported once the goal completes.
	Result actionlib.GoalStatus
	// Delay is how long the goal runs before completing.
	Delay time.Duration
	// Never keeps the goal active forever (until cancelled).
	Never bool
	// SendErr, when set, is returned by SendGoal.
	SendErr error
	// WaitErr, when set, is returned by WaitForResult.
	WaitErr error
	// StateErr, when set, is returned by GetState.
	StateErr error
	// UnavailableFor makes WaitForServer block for this long before succeeding.
	UnavailableFor time.Duration
}

// Succeed returns a behavior completing immediately with SUCCEEDED.
func Succeed() Behavior {
	return Behavior{Result: actionlib.StatusSucceeded}
}

// Finish returns a behavior completing with the given status after delay.
func Finish(status actionlib.GoalStatus, delay time.Duration) Behavior {
	return Behavior{Result: status, Delay: delay}
}

// Hang returns a behavior whose goals never complete on their own.
func Hang() Behavior {
	return Behavior{Never: true}
}

// Client is a fake actionlib.Client. Safe for concurrent use.
type Client struct {
	endpoint string

	mu       sync.Mutex
	behavior Behavior
	goals    []actionlib.Goal
	status   actionlib.GoalStatus
	active   bool
	done     chan struct{}
	timer    *time.Timer

	sendCalls   *atomic.Int64
	cancelCalls *atomic.Int64
	waitCalls   *atomic.Int64
	connects    *atomic.Int64
}

var _ actionlib.Client = (*Client)(nil)

// New creates a fake client for endpoint with the given behavior.
func New(endpoint string, behavior Behavior) *Client {
	return &Client{
		endpoint:    endpoint,
		behavior:    behavior,
		sendCalls:   atomic.NewInt64(0),
		cancelCalls: atomic.NewInt64(0),
		waitCalls:   atomic.NewInt64(0),
		connects:    atomic.NewInt64(0),
	}
}

// SetBehavior changes the script for goals sent from now on.
func (c *Client) SetBehavior(b Behavior) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.behavior = b
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) WaitForServer(ctx context.Context) error {
	c.connects.Inc()

	c.mu.Lock()
	wait := c.behavior.UnavailableFor
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) SendGoal(_ context.Context, goal actionlib.Goal) error {
	c.sendCalls.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.behavior.SendErr != nil {
		return c.behavior.SendErr
	}

	if c.timer != nil {
		c.timer.Stop()
	}

	c.goals = append(c.goals, actionlib.Goal{Parameters: goal.Parameters.Clone()})
	c.status = actionlib.StatusActive
	c.active = true
	done := make(chan struct{})
	c.done = done

	if c.behavior.Never {
		return nil
	}

	result := c.behavior.Result
	if c.behavior.Delay <= 0 {
		c.status = result
		closeOnce(done)

		return nil
	}

	c.timer = time.AfterFunc(c.behavior.Delay, func() {
		c.finish(done, result)
	})

	return nil
}

func (c *Client) finish(done chan struct{}, status actionlib.GoalStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer goal may have replaced this one.
	if c.done != done || c.status.IsTerminal() {
		return
	}

	c.status = status
	closeOnce(done)
}

func (c *Client) WaitForResult(ctx context.Context, timeout time.Duration) (bool, error) {
	c.waitCalls.Inc()

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()

		return false, actionlib.ErrNoActiveGoal
	}

	done, waitErr := c.done, c.behavior.WaitErr
	c.mu.Unlock()

	if waitErr != nil {
		return false, waitErr
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Client) GetState(_ context.Context) (actionlib.GoalStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.behavior.StateErr != nil {
		return actionlib.StatusLost, c.behavior.StateErr
	}

	if !c.active {
		return actionlib.StatusLost, actionlib.ErrNoActiveGoal
	}

	return c.status, nil
}

func (c *Client) CancelGoal(_ context.Context) error {
	c.cancelCalls.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return actionlib.ErrNoActiveGoal
	}

	if c.status.IsTerminal() {
		return nil
	}

	if c.timer != nil {
		c.timer.Stop()
	}

	c.status = actionlib.StatusPreempted
	closeOnce(c.done)

	return nil
}

func closeOnce(done chan struct{}) {
	select {
	case <-done:
	default:
		close(done)
	}
}

// SendCalls returns how many times SendGoal was called.
func (c *Client) SendCalls() int {
	return int(c.sendCalls.Load())
}

// CancelCalls returns how many times CancelGoal was called.
func (c *Client) CancelCalls() int {
	return int(c.cancelCalls.Load())
}

// WaitCalls returns how many times WaitForResult was called.
func (c *Client) WaitCalls() int {
	return int(c.waitCalls.Load())
}

// Connects returns how many times WaitForServer was called.
func (c *Client) Connects() int {
	return int(c.connects.Load())
}

// Goals returns copies of every goal sent, oldest first.
func (c *Client) Goals() []actionlib.Goal {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]actionlib.Goal, len(c.goals))
	copy(out, c.goals)

	return out
}

// LastGoal returns the most recent goal and whether one was sent.
func (c *Client) LastGoal() (actionlib.Goal, bool) {
	goals := c.Goals()
	if len(goals) == 0 {
		return actionlib.Goal{}, false
	}

	return goals[len(goals)-1], true
}

// Dialer hands out fake clients, creating one per endpoint on first use.
type Dialer struct {
	mu       sync.Mutex
	clients  map[string]*Client
	fallback Behavior
}

// NewDialer creates a dialer whose new clients use the given behavior.
func NewDialer(fallback Behavior) *Dialer {
	return &Dialer{clients: make(map[string]*Client), fallback: fallback}
}

// Dial returns the client for endpoint.
func (d *Dialer) Dial(endpoint string) (actionlib.Client, error) {
	return d.Client(endpoint), nil
}

// Client returns the concrete fake for endpoint, creating it if needed.
func (d *Dialer) Client(endpoint string) *Client {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.clients[endpoint]
	if !ok {
		c = New(endpoint, d.fallback)
		d.clients[endpoint] = c
	}

	return c
}
