package actionstate

import (
	"time"

	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/params"
)

// Outcome is the label an activation hands back to the state machine.
type Outcome string

const (
	Success Outcome = "success"
	Failed  Outcome = "failed"
)

// Outcomes lists every label an adapter can return.
func Outcomes() []Outcome {
	return []Outcome{Success, Failed}
}

func (o Outcome) String() string {
	return string(o)
}

// Reduce maps a terminal status to an outcome. Only SUCCEEDED is a success;
// aborted, preempted, rejected, lost and still-running goals all fail.
func Reduce(status actionlib.GoalStatus) Outcome {
	if status == actionlib.StatusSucceeded {
		return Success
	}

	return Failed
}

// Result describes one activation in more detail than the outcome. The
// state machine only ever sees Outcome; the rest feeds logs and metrics.
type Result struct {
	Outcome Outcome
	// Status is the goal status read after the wait. Only meaningful when Called.
	Status actionlib.GoalStatus
	// Called reports whether a goal was sent to the endpoint.
	Called bool
	// TimedOut reports that the wait elapsed before the goal finished.
	TimedOut bool
	// Cancelled reports that a cancel request was sent after the timeout.
	Cancelled bool
	// Parameters are the parameters sent (or that would have been sent).
	Parameters params.Params
	Duration   time.Duration
	// Err holds the absorbed failure cause, if any.
	Err error
}

func (r Result) statusLabel() string {
	if !r.Called {
		return "none"
	}

	return r.Status.String()
}
