package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/workflow"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "agentmesh"

// Publisher publishes progress events to NATS.
//
// Events are published to subjects:
//   - {prefix}.conversations.{conversation_id}.turns.{turn_id}.workflow_started
//   - {prefix}.conversations.{conversation_id}.turns.{turn_id}.step_started
//   - {prefix}.conversations.{conversation_id}.turns.{turn_id}.step_completed
//   - {prefix}.conversations.{conversation_id}.turns.{turn_id}.workflow_completed
//
// Conversation and turn IDs are taken from the context. Publish failures are
// logged and never reach the workflow.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
}

var _ workflow.Notifier = (*Publisher)(nil)

// NewPublisher creates a publisher on an established connection.
func NewPublisher(nc *nats.Conn, prefix string, logger *logging.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger.Named("progress.nats")}
}

func (p *Publisher) OnWorkflowStart(ctx context.Context) {
	p.publish(ctx, newEvent(ctx, EventWorkflowStarted, "", nil))
}

func (p *Publisher) OnStepStart(ctx context.Context, name string, inputs map[string]string) {
	p.publish(ctx, newEvent(ctx, EventStepStarted, name, inputs))
}

func (p *Publisher) OnStepEnd(ctx context.Context, name string, outputs map[string]string) {
	p.publish(ctx, newEvent(ctx, EventStepCompleted, name, outputs))
}

func (p *Publisher) OnWorkflowEnd(ctx context.Context) {
	p.publish(ctx, newEvent(ctx, EventWorkflowCompleted, "", nil))
}

// Publish sends one event. It is exported for callers that report progress
// outside of a workflow run.
func (p *Publisher) Publish(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	subject := TurnSubject(p.prefix, e.ConversationID, e.TurnID) + "." + string(e.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, e Event) {
	if err := p.Publish(e); err != nil {
		p.logger.Warn(ctx, "progress event dropped", zap.Error(err))
	}
}

// TurnSubject is the subject root of one turn's events.
func TurnSubject(prefix, conversationID, turnID string) string {
	return fmt.Sprintf("%s.conversations.%s.turns.%s", prefix, token(conversationID), token(turnID))
}

// ConversationSubject matches every event of every turn in a conversation.
func ConversationSubject(prefix, conversationID string) string {
	return fmt.Sprintf("%s.conversations.%s.>", prefix, token(conversationID))
}

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_", "\n", "_")

// token makes an ID safe to use as a single subject token.
func token(id string) string {
	if id == "" {
		return "_"
	}
	return subjectReplacer.Replace(id)
}

// DecodeEvent parses an event published by a Publisher.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode progress event: %w", err)
	}
	return e, nil
}
