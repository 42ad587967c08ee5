// Package actionlib defines the client side of the remote action protocol: a
// goal carrying ordered parameters is sent to a named endpoint, the caller waits
// a bounded time for it to finish and then reads the goal's status.
package actionlib

import (
	"context"
	"errors"
	"time"

	"github.com/mir-robotics/actionstates/params"
)

var (
	// ErrNoActiveGoal is returned by status, wait and cancel calls made before SendGoal.
	ErrNoActiveGoal = errors.New("no active goal")
	// ErrUnknownStatus is returned for status names outside the protocol enumeration.
	ErrUnknownStatus = errors.New("unknown goal status")
	// ErrServerUnavailable is returned when an endpoint can't be reached.
	ErrServerUnavailable = errors.New("action server unavailable")
	// ErrGoalRejected is returned when the server refuses to accept a goal.
	ErrGoalRejected = errors.New("goal rejected by server")
)

// Goal is the request sent to an action endpoint.
type Goal struct {
	Parameters params.Params `json:"parameters"`
}

// Client talks to exactly one action endpoint and tracks the most recent goal
// sent through it. Implementations are not expected to be used concurrently.
type Client interface {
	// Endpoint returns the name of the action server this client is bound to.
	Endpoint() string

	// WaitForServer blocks until the endpoint is reachable or ctx is done.
	WaitForServer(ctx context.Context) error

	// SendGoal submits a goal. It replaces whatever goal was tracked before.
	SendGoal(ctx context.Context, goal Goal) error

	// WaitForResult blocks until the current goal reaches a terminal status or
	// the timeout elapses. It reports whether the goal finished.
	WaitForResult(ctx context.Context, timeout time.Duration) (bool, error)

	// GetState returns the status most recently reported for the current goal.
	GetState(ctx context.Context) (GoalStatus, error)

	// CancelGoal asks the server to stop the current goal.
	CancelGoal(ctx context.Context) error
}

// Dialer creates clients bound to endpoint names.
type Dialer interface {
	Dial(endpoint string) (Client, error)
}

// DialerFunc adapts a function into a Dialer.
type DialerFunc func(endpoint string) (Client, error)

// Dial calls f.
func (f DialerFunc) Dial(endpoint string) (Client, error) {
	return f(endpoint)
}
