package resilience

import (
	"context"

	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// RetriesTotal counts scheduled retries.
// Labels: agent
var RetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "agentmesh",
		Subsystem: "resilience",
		Name:      "retries_total",
		Help:      "Total number of agent invocation retries",
	},
	[]string{"agent"},
)

// LogObserver logs every retry at warn level.
func LogObserver(logger *logging.Logger) Observer {
	return func(ctx context.Context, ev RetryEvent) {
		logger.Warn(ctx, "retrying agent invocation",
			zap.String("agent", ev.Agent),
			zap.Int("attempt", ev.Attempt),
			zap.Duration("delay", ev.Delay),
			zap.Error(ev.Err),
		)
	}
}

// MetricsObserver counts retries per agent.
func MetricsObserver() Observer {
	return func(_ context.Context, ev RetryEvent) {
		RetriesTotal.WithLabelValues(ev.Agent).Inc()
	}
}
