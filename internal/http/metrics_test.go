package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRequestMetrics_Middleware(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	m, err := newRequestMetrics(mp.Meter(httpInstrumentationName))
	require.NoError(t, err)

	e := echo.New()
	e.Use(m.middleware())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/api/v1/conversations/:id/messages", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"answer": "4"})
	})

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/health"},
		{http.MethodPost, "/api/v1/conversations/a/messages"},
		{http.MethodPost, "/api/v1/conversations/b/messages"},
	} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(r.method, r.path, nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			found[mt.Name] = true
			switch mt.Name {
			case "agentmesh.http.requests_total":
				sum, ok := mt.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				endpoints := map[string]int64{}
				for _, dp := range sum.DataPoints {
					v, _ := dp.Attributes.Value(attribute.Key("endpoint"))
					endpoints[v.AsString()] += dp.Value
				}
				assert.Equal(t, int64(1), endpoints["/health"])
				assert.Equal(t, int64(2), endpoints["/api/v1/conversations/:id/messages"], "IDs never become labels")
			case "agentmesh.http.request_duration_seconds":
				hist, ok := mt.Data.(metricdata.Histogram[float64])
				require.True(t, ok)
				var total uint64
				for _, dp := range hist.DataPoints {
					total += dp.Count
				}
				assert.Equal(t, uint64(3), total)
			}
		}
	}

	assert.True(t, found["agentmesh.http.requests_total"], "requests counter not found")
	assert.True(t, found["agentmesh.http.request_duration_seconds"], "duration histogram not found")
	assert.True(t, found["agentmesh.http.response_size_bytes"], "response size histogram not found")
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unmatched"},
		{"/health", "/health"},
		{"/api/v1/conversations/:id", "/api/v1/conversations/:id"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, routeLabel(tt.input))
	}
}
