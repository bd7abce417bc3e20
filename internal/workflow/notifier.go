package workflow

import "context"

// Notifier receives progress events of a turn. Implementations must not
// block for long: they run inline with the turn.
type Notifier interface {
	OnWorkflowStart(ctx context.Context)
	OnStepStart(ctx context.Context, name string, inputs map[string]string)
	OnStepEnd(ctx context.Context, name string, outputs map[string]string)
	OnWorkflowEnd(ctx context.Context)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) OnWorkflowStart(context.Context) {}
func (NopNotifier) OnStepStart(context.Context, string, map[string]string) {}
func (NopNotifier) OnStepEnd(context.Context, string, map[string]string) {}
func (NopNotifier) OnWorkflowEnd(context.Context) {}
