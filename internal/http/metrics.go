package http

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/agentmesh/internal/http"

// requestMetrics instruments every request. Turn requests dominate the
// latency distribution, hence buckets up to several minutes.
type requestMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
}

// newRequestMetrics creates the instruments on meter, or on the global
// meter provider when meter is nil.
func newRequestMetrics(meter metric.Meter) (*requestMetrics, error) {
	if meter == nil {
		meter = otel.Meter(httpInstrumentationName)
	}
	m := &requestMetrics{}
	var errs [4]error
	m.requests, errs[0] = meter.Int64Counter("agentmesh.http.requests_total",
		metric.WithDescription("HTTP requests by method, route and status"),
		metric.WithUnit("{request}"))
	m.duration, errs[1] = meter.Float64Histogram("agentmesh.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration by method, route and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300))
	m.size, errs[2] = meter.Int64Histogram("agentmesh.http.response_size_bytes",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(100, 1000, 10000, 100000, 1000000))
	m.inFlight, errs[3] = meter.Int64UpDownCounter("agentmesh.http.active_requests",
		metric.WithDescription("HTTP requests in flight, including open event streams"),
		metric.WithUnit("{request}"))
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *requestMetrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			m.inFlight.Add(ctx, 1)
			defer m.inFlight.Add(ctx, -1)

			err := next(c)

			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", routeLabel(c.Path())),
				attribute.Int("status", c.Response().Status),
			)
			m.requests.Add(ctx, 1, attrs)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.size.Record(ctx, c.Response().Size, attrs)
			return err
		}
	}
}

// routeLabel is the matched route pattern (/api/v1/conversations/:id), so
// conversation IDs never become label values. Unmatched requests have none.
func routeLabel(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}
