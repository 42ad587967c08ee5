package actionlib

import (
	"github.com/mir-robotics/actionstates/params"
)

// HTTP routes of the action protocol. {endpoint} is the action server name,
// {id} a goal ID chosen by the client.
const (
	RouteServer = "/actions/{endpoint}"
	RouteGoals  = "/actions/{endpoint}/goals"
	RouteGoal   = "/actions/{endpoint}/goals/{id}"
	RouteCancel = "/actions/{endpoint}/goals/{id}/cancel"
)

// GoalRequest is the body of a goal submission.
type GoalRequest struct {
	GoalID     string        `json:"goal_id"`
	Parameters params.Params `json:"parameters"`
}

// GoalState is the server's view of a goal.
type GoalState struct {
	GoalID     string        `json:"goal_id"`
	Status     GoalStatus    `json:"status"`
	Parameters params.Params `json:"parameters"`
}

// ServerInfo is returned by the readiness route.
type ServerInfo struct {
	Endpoint string `json:"endpoint"`
	Ready    bool   `json:"ready"`
}

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}
