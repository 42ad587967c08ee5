package simserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	goalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simserver_goals_total",
		Help: "Total number of goals accepted by endpoint",
	}, []string{"endpoint"})

	finishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simserver_goals_finished_total",
		Help: "Total number of goals that reached a terminal status by endpoint and status",
	}, []string{"endpoint", "status"})

	cancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simserver_goals_cancelled_total",
		Help: "Total number of cancel requests that stopped a goal by endpoint",
	}, []string{"endpoint"})

	evictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_goals_evicted_total",
		Help: "Total number of finished goals dropped after the retention period",
	})
)
