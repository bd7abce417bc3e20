package progress

import (
	"context"

	"github.com/fyrsmithlabs/agentmesh/internal/workflow"
)

// Multi fans every event out to several notifiers in order.
type Multi []workflow.Notifier

var _ workflow.Notifier = Multi(nil)

func (m Multi) OnWorkflowStart(ctx context.Context) {
	for _, n := range m {
		n.OnWorkflowStart(ctx)
	}
}

func (m Multi) OnStepStart(ctx context.Context, name string, inputs map[string]string) {
	for _, n := range m {
		n.OnStepStart(ctx, name, inputs)
	}
}

func (m Multi) OnStepEnd(ctx context.Context, name string, outputs map[string]string) {
	for _, n := range m {
		n.OnStepEnd(ctx, name, outputs)
	}
}

func (m Multi) OnWorkflowEnd(ctx context.Context) {
	for _, n := range m {
		n.OnWorkflowEnd(ctx)
	}
}

// Combine drops nil notifiers and collapses the result: no notifier gives a
// workflow.NopNotifier, one is returned as is.
func Combine(notifiers ...workflow.Notifier) workflow.Notifier {
	var m Multi
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	switch len(m) {
	case 0:
		return workflow.NopNotifier{}
	case 1:
		return m[0]
	}
	return m
}
