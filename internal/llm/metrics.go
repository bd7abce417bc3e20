package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts model calls.
	// Labels: agent, model, outcome (success, error, tool_choice_none)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total number of model calls by agent and outcome",
		},
		[]string{"agent", "model", "outcome"},
	)

	// TokensTotal counts tokens reported by the provider.
	// Labels: agent, model, direction (input, output)
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total number of tokens consumed by agent and direction",
		},
		[]string{"agent", "model", "direction"},
	)

	// RequestDuration tracks model call latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agentmesh",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Duration of model calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"agent", "model"},
	)

	// RateLimitWait tracks time spent waiting on the provider rate limiter.
	RateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agentmesh",
			Subsystem: "llm",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for the provider rate limiter",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

func recordCall(agent, model string, usage Usage, seconds float64, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case isToolChoiceNone(err):
		outcome = "tool_choice_none"
	default:
		outcome = "error"
	}
	RequestsTotal.WithLabelValues(agent, model, outcome).Inc()
	RequestDuration.WithLabelValues(agent, model).Observe(seconds)
	if err == nil {
		TokensTotal.WithLabelValues(agent, model, "input").Add(float64(usage.InputTokens))
		TokensTotal.WithLabelValues(agent, model, "output").Add(float64(usage.OutputTokens))
	}
}
