package workflow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the name used for OTEL instrumentation.
const InstrumentationName = "github.com/fyrsmithlabs/agentmesh/internal/workflow"

var tracer = otel.Tracer(InstrumentationName)

// Metrics holds the OTEL instruments of the engine.
type Metrics struct {
	turnsTotal   metric.Int64Counter
	turnDuration metric.Float64Histogram
	stepDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter, or on the global meter
// provider when meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.turnsTotal, err = meter.Int64Counter(
		"agentmesh.workflow.turns",
		metric.WithDescription("Total number of turns by branch and outcome"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	m.turnDuration, err = meter.Float64Histogram(
		"agentmesh.workflow.turn.duration",
		metric.WithDescription("Duration of complete turns"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.stepDuration, err = meter.Float64Histogram(
		"agentmesh.workflow.step.duration",
		metric.WithDescription("Duration of workflow steps"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordStep(ctx context.Context, step Step, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.stepDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("step", step.String()),
		attribute.Bool("error", err != nil),
	))
}

func (m *Metrics) recordTurn(ctx context.Context, branch string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	attrs := metric.WithAttributes(
		attribute.String("branch", branch),
		attribute.String("outcome", outcome),
	)
	m.turnsTotal.Add(ctx, 1, attrs)
	m.turnDuration.Record(ctx, d.Seconds(), attrs)
}
