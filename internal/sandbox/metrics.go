package sandbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts program runs.
	// Labels: outcome (ok, execution_failed, timeout, canceled)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "sandbox",
			Name:      "runs_total",
			Help:      "Total number of sandboxed program runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks program run time.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agentmesh",
			Subsystem: "sandbox",
			Name:      "run_duration_seconds",
			Help:      "Duration of sandboxed program runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)
)
