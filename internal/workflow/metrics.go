package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StepsTotal counts executed steps.
	// Labels: step, outcome (success, error)
	StepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "workflow",
			Name:      "steps_total",
			Help:      "Total number of workflow steps by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	// FixIterations tracks how many static analysis fixes code turns needed.
	FixIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agentmesh",
			Subsystem: "workflow",
			Name:      "fix_iterations",
			Help:      "Number of code fix iterations per code-generating turn",
			Buckets:   []float64{0, 1, 2, 3, 5},
		},
	)
)
