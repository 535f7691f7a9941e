package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts pipeline runs by terminal status.
	// Labels: status (done, aborted)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kompow",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by terminal status",
		},
		[]string{"status"},
	)

	// StagesTotal counts stage executions by stage and outcome.
	// Labels: stage, status (completed, failed, skipped)
	StagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kompow",
			Subsystem: "pipeline",
			Name:      "stages_total",
			Help:      "Total number of stage executions by outcome",
		},
		[]string{"stage", "status"},
	)

	// RunDuration observes end-to-end run duration.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kompow",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)
