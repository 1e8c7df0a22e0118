package group

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filterRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollcall",
		Name:      "filter_runs_total",
		Help:      "Number of group filter runs, by outcome (ok, partial, error, locked).",
	}, []string{"outcome"})

	filterRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rollcall",
		Name:      "filter_run_duration_seconds",
		Help:      "Duration of group filter runs.",
		Buckets:   prometheus.DefBuckets,
	})

	groupEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollcall",
		Name:      "group_evaluations_total",
		Help:      "Number of group evaluations, by result (ok, error).",
	}, []string{"result"})
)
