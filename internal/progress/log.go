package progress

import (
	"context"

	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/workflow"
	"go.uber.org/zap"
)

// maxLoggedParam bounds each parameter value in step events.
const maxLoggedParam = 512

// Log writes progress events as structured log entries. Step boundaries go
// to Debug, the parameters themselves only to Trace.
type Log struct {
	logger *logging.Logger
}

var _ workflow.Notifier = (*Log)(nil)

// NewLog creates a log notifier.
func NewLog(logger *logging.Logger) *Log {
	return &Log{logger: logger.Named("progress")}
}

func (l *Log) OnWorkflowStart(ctx context.Context) {
	l.logger.Debug(ctx, "workflow started")
}

func (l *Log) OnStepStart(ctx context.Context, name string, inputs map[string]string) {
	l.logger.Debug(ctx, "step started", zap.String("step_name", name), zap.Int("inputs", len(inputs)))
	l.logger.Trace(ctx, "step inputs", paramFields(name, inputs)...)
}

func (l *Log) OnStepEnd(ctx context.Context, name string, outputs map[string]string) {
	l.logger.Debug(ctx, "step completed", zap.String("step_name", name), zap.Int("outputs", len(outputs)))
	l.logger.Trace(ctx, "step outputs", paramFields(name, outputs)...)
}

func (l *Log) OnWorkflowEnd(ctx context.Context) {
	l.logger.Debug(ctx, "workflow completed")
}

func paramFields(name string, params map[string]string) []zap.Field {
	fields := make([]zap.Field, 0, len(params)+1)
	fields = append(fields, zap.String("step_name", name))
	for k, v := range params {
		fields = append(fields, logging.Truncated("param."+k, v, maxLoggedParam))
	}
	return fields
}
