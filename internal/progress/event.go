package progress

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/agentmesh/internal/logging"
)

// EventType names a progress event.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow_started"
	EventStepStarted       EventType = "step_started"
	EventStepCompleted     EventType = "step_completed"
	EventWorkflowCompleted EventType = "workflow_completed"
)

// Event is the wire form of a progress notification.
type Event struct {
	Type           EventType         `json:"type"`
	ConversationID string            `json:"conversation_id,omitempty"`
	TurnID         string            `json:"turn_id,omitempty"`
	Step           string            `json:"step,omitempty"`
	Parameters     map[string]string `json:"parameters,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

func newEvent(ctx context.Context, typ EventType, step string, params map[string]string) Event {
	return Event{
		Type:           typ,
		ConversationID: logging.ConversationIDFromContext(ctx),
		TurnID:         logging.TurnIDFromContext(ctx),
		Step:           step,
		Parameters:     params,
		Timestamp:      time.Now().UTC(),
	}
}

// Terminal reports whether no further events follow for the turn.
func (e Event) Terminal() bool {
	return e.Type == EventWorkflowCompleted
}
