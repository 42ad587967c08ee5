package actionlib

import (
	"fmt"
	"strings"
)

// GoalStatus is the state an action server reports for a goal.
type GoalStatus int

const (
	// StatusPending means the goal was received but not yet processed.
	StatusPending GoalStatus = iota
	// StatusActive means the goal is being processed.
	StatusActive
	// StatusPreempted means the goal was cancelled after it started executing.
	StatusPreempted
	// StatusSucceeded means the goal completed successfully.
	StatusSucceeded
	// StatusAborted means the server gave up on the goal.
	StatusAborted
	// StatusRejected means the server refused the goal without processing it.
	StatusRejected
	// StatusPreempting means a cancel request arrived while executing.
	StatusPreempting
	// StatusRecalling means a cancel request arrived before execution started.
	StatusRecalling
	// StatusRecalled means the goal was cancelled before it started executing.
	StatusRecalled
	// StatusLost means the client lost track of the goal.
	StatusLost
)

var statusNames = map[GoalStatus]string{
	StatusPending:    "PENDING",
	StatusActive:     "ACTIVE",
	StatusPreempted:  "PREEMPTED",
	StatusSucceeded:  "SUCCEEDED",
	StatusAborted:    "ABORTED",
	StatusRejected:   "REJECTED",
	StatusPreempting: "PREEMPTING",
	StatusRecalling:  "RECALLING",
	StatusRecalled:   "RECALLED",
	StatusLost:       "LOST",
}

func (s GoalStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("GoalStatus(%d)", int(s))
}

// IsTerminal reports whether the server will not change the status any more.
func (s GoalStatus) IsTerminal() bool {
	switch s {
	case StatusPreempted, StatusSucceeded, StatusAborted, StatusRejected, StatusRecalled, StatusLost:
		return true
	case StatusPending, StatusActive, StatusPreempting, StatusRecalling:
		return false
	default:
		return false
	}
}

// ParseStatus converts a wire name (case-insensitive) into a GoalStatus.
func ParseStatus(name string) (GoalStatus, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))

	for status, n := range statusNames {
		if n == upper {
			return status, nil
		}
	}

	return StatusLost, fmt.Errorf("%w: %q", ErrUnknownStatus, name)
}

// MarshalText encodes the status by name.
func (s GoalStatus) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *GoalStatus) UnmarshalText(text []byte) error {
	status, err := ParseStatus(string(text))
	if err != nil {
		return err
	}

	*s = status

	return nil
}
