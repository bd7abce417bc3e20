package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const protocolHTTP = "http/protobuf"

func newResource(cfg *Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.ServiceNamespace("agentmesh"),
	)
}

// exporters pairs the OTLP span exporter with the optional metric exporter.
type exporters struct {
	spans   trace.SpanExporter
	metrics sdkmetric.Exporter
}

// cumulative keeps OTLP series aligned with the Prometheus registry on
// /metrics.
func cumulative(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func newExporters(ctx context.Context, cfg *Config) (exporters, error) {
	var (
		exp exporters
		err error
	)
	if cfg.Protocol == protocolHTTP {
		endpoint := stripScheme(cfg.Endpoint)
		traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		metricOpts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithTemporalitySelector(cumulative),
		}
		if cfg.Insecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}
		if exp.spans, err = otlptracehttp.New(ctx, traceOpts...); err != nil {
			return exp, fmt.Errorf("trace exporter: %w", err)
		}
		if cfg.Metrics.Enabled {
			if exp.metrics, err = otlpmetrichttp.New(ctx, metricOpts...); err != nil {
				return exp, fmt.Errorf("metric exporter: %w", err)
			}
		}
		return exp, nil
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithTemporalitySelector(cumulative),
	}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}
	if exp.spans, err = otlptracegrpc.New(ctx, traceOpts...); err != nil {
		return exp, fmt.Errorf("trace exporter: %w", err)
	}
	if cfg.Metrics.Enabled {
		if exp.metrics, err = otlpmetricgrpc.New(ctx, metricOpts...); err != nil {
			return exp, fmt.Errorf("metric exporter: %w", err)
		}
	}
	return exp, nil
}

func sampler(rate float64) trace.Sampler {
	switch {
	case rate >= 1:
		return trace.AlwaysSample()
	case rate <= 0:
		return trace.NeverSample()
	default:
		return trace.TraceIDRatioBased(rate)
	}
}

// stripScheme turns a URL into the host:port the HTTP exporters expect.
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}
