package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := ConversationIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("conversation.id", id))
	}
	if id := TurnIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("turn.id", id))
	}
	if agent := AgentFromContext(ctx); agent != "" {
		fields = append(fields, zap.String("agent", agent))
	}
	if step := StepFromContext(ctx); step != "" {
		fields = append(fields, zap.String("step", step))
	}

	return fields
}

type conversationCtxKey struct{}
type turnCtxKey struct{}
type agentCtxKey struct{}
type stepCtxKey struct{}
type loggerCtxKey struct{}

// WithConversationID tags the context with the conversation being served.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationCtxKey{}, id)
}

// ConversationIDFromContext returns the conversation ID, or "".
func ConversationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(conversationCtxKey{}).(string)
	return id
}

// WithTurnID tags the context with the current turn.
func WithTurnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, turnCtxKey{}, id)
}

// TurnIDFromContext returns the turn ID, or "".
func TurnIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(turnCtxKey{}).(string)
	return id
}

// WithAgent tags the context with the agent currently calling the model.
func WithAgent(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, agentCtxKey{}, agent)
}

// AgentFromContext returns the agent name, or "".
func AgentFromContext(ctx context.Context) string {
	a, _ := ctx.Value(agentCtxKey{}).(string)
	return a
}

// WithStep tags the context with the workflow step being executed.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepCtxKey{}, step)
}

// StepFromContext returns the workflow step, or "".
func StepFromContext(ctx context.Context) string {
	s, _ := ctx.Value(stepCtxKey{}).(string)
	return s
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
