package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Recorder keeps spans and metrics in memory so tests can assert on the
// instrumentation of a turn.
type Recorder struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader

	TracerProvider *trace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// NewRecorder creates providers backed by in-memory exporters.
func NewRecorder() *Recorder {
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	return &Recorder{
		spans:          spans,
		reader:         reader,
		TracerProvider: trace.NewTracerProvider(trace.WithSpanProcessor(spans)),
		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// Tracer returns a tracer of the recording provider.
func (r *Recorder) Tracer(name string) oteltrace.Tracer { return r.TracerProvider.Tracer(name) }

// Meter returns a meter of the recording provider.
func (r *Recorder) Meter(name string) metric.Meter { return r.MeterProvider.Meter(name) }

// SpanNames lists ended spans in end order.
func (r *Recorder) SpanNames() []string {
	ended := r.spans.Ended()
	names := make([]string, len(ended))
	for i, s := range ended {
		names[i] = s.Name()
	}
	return names
}

// Span returns the first ended span with the given name.
func (r *Recorder) Span(name string) trace.ReadOnlySpan {
	for _, s := range r.spans.Ended() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// AssertSpanAttribute fails tb unless span name ended carrying key=want.
func (r *Recorder) AssertSpanAttribute(tb testing.TB, name, key string, want interface{}) {
	tb.Helper()
	span := r.Span(name)
	if span == nil {
		tb.Fatalf("span %q not recorded, got %v", name, r.SpanNames())
	}
	for _, kv := range span.Attributes() {
		if string(kv.Key) != key {
			continue
		}
		if got := attrValue(kv.Value); got != want {
			tb.Errorf("span %q attribute %q: got %v, want %v", name, key, got, want)
		}
		return
	}
	tb.Errorf("span %q has no attribute %q", name, key)
}

func attrValue(v attribute.Value) interface{} {
	switch v.Type() {
	case attribute.STRING:
		return v.AsString()
	case attribute.INT64:
		return v.AsInt64()
	case attribute.FLOAT64:
		return v.AsFloat64()
	case attribute.BOOL:
		return v.AsBool()
	default:
		return v.AsInterface()
	}
}

// Int64Sum collects metrics and returns the total of the named int64
// counter over all attribute sets. Unknown counters sum to zero.
func (r *Recorder) Int64Sum(tb testing.TB, name string) int64 {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collect metrics: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

// HistogramCount returns how many values the named float64 histogram saw.
func (r *Recorder) HistogramCount(tb testing.TB, name string) uint64 {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collect metrics: %v", err)
	}
	var n uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				for _, dp := range h.DataPoints {
					n += dp.Count
				}
			}
		}
	}
	return n
}
