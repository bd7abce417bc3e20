package conversation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SummariesTotal counts summarizations.
	// Labels: outcome (success, error)
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation",
			Name:      "summaries_total",
			Help:      "Total number of history summarizations by outcome",
		},
		[]string{"outcome"},
	)

	// ActiveConversations tracks conversations held by stores.
	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation",
			Name:      "active",
			Help:      "Number of conversations currently held in memory",
		},
	)
)
