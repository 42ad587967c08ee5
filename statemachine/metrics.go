package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome label used when a state or run ends with an error.
const outcomeError = "error"

var (
	// stateVisitsTotal tracks state exits by scenario, state and outcome label.
	stateVisitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_state_visits_total",
		Help: "Total number of state visits by scenario, state, and outcome",
	}, []string{"scenario", "state", "outcome"})

	stateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_state_duration_seconds",
		Help:    "Duration of state execution by scenario, state, and outcome",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 15, 30, 60},
	}, []string{"scenario", "state", "outcome"})

	transitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_transitions_total",
		Help: "Total number of state transitions by scenario, from_state, to_state, and outcome",
	}, []string{"scenario", "from_state", "to_state", "outcome"})

	// executionDuration tracks end-to-end runs; result is the final state or "error".
	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_execution_duration_seconds",
		Help:    "Duration of state machine execution by scenario and result",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"scenario", "result"})

	pathLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_path_length",
		Help:    "Number of states visited per execution by scenario and result",
		Buckets: prometheus.LinearBuckets(1, 2, 10),
	}, []string{"scenario", "result"})

	executionsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_executions_cancelled_total",
		Help: "Total number of executions stopped by context cancellation, by scenario and state",
	}, []string{"scenario", "state"})
)

func sanitizeScenario(name string) string {
	if name == "" {
		return "unknown"
	}

	return name
}

func sanitizeOutcome(outcome string) string {
	if outcome == "" {
		return "none"
	}

	return outcome
}
