package actionstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// activationsTotal counts activations by outcome and the goal status behind it.
	activationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionstate_activations_total",
		Help: "Total number of action state activations by action, endpoint, outcome and goal status",
	}, []string{"action", "endpoint", "outcome", "status"})

	activationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "actionstate_activation_duration_seconds",
		Help:    "Duration of action state activations by action, endpoint and outcome",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 15, 20, 30, 45, 60},
	}, []string{"action", "endpoint", "outcome"})

	// parameterDefaults counts parameters that fell through to their default.
	parameterDefaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionstate_parameter_defaults_total",
		Help: "Total number of parameters resolved from their default value by action and key",
	}, []string{"action", "key"})

	remoteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionstate_remote_calls_total",
		Help: "Total number of goals sent to action servers by action and endpoint",
	}, []string{"action", "endpoint"})

	timeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionstate_timeouts_total",
		Help: "Total number of activations whose wait elapsed, by action and whether a cancel was sent",
	}, []string{"action", "cancelled"})
)

func (a *Adapter) record(result Result) {
	outcome := result.Outcome.String()

	activationsTotal.WithLabelValues(a.name, a.spec.Endpoint, outcome, result.statusLabel()).Inc()
	activationDuration.WithLabelValues(a.name, a.spec.Endpoint, outcome).Observe(result.Duration.Seconds())

	if result.TimedOut {
		cancelled := "false"
		if result.Cancelled {
			cancelled = "true"
		}

		timeoutsTotal.WithLabelValues(a.name, cancelled).Inc()
	}
}
