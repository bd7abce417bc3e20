package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentmesh/internal/agent"
	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/workflow"
)

const instrumentationName = "github.com/fyrsmithlabs/agentmesh/internal/assistant"

// TurnRunner runs one turn. *workflow.Engine implements it.
type TurnRunner interface {
	Run(ctx context.Context, request string, history []conversation.Message) (*workflow.State, error)
}

// Options configures a Service.
type Options struct {
	// Models maps agent names to model names for pricing.
	Models map[string]string
	Prices llm.PriceTable
	Logger *logging.Logger
	// Now stamps requests. Defaults to time.Now.
	Now func() time.Time
	// NewID generates conversation and turn IDs. Defaults to uuid.NewString.
	NewID func() string
}

// Answer is the outcome of a successful turn.
type Answer struct {
	ConversationID string
	TurnID         string
	Text           string
	State          *workflow.State
	// Usage includes the summarizer when the turn triggered a summary.
	Usage   []workflow.TokenUsage
	Report  Report
	Summary *conversation.Summary
}

// Service answers user requests within conversations.
type Service struct {
	runner TurnRunner
	store  *conversation.Store
	models map[string]string
	prices llm.PriceTable
	logger *logging.Logger
	now    func() time.Time
	newID  func() string

	tracer       trace.Tracer
	turnsCounter metric.Int64Counter
}

// NewService creates a service on store.
func NewService(runner TurnRunner, store *conversation.Store, opts Options) (*Service, error) {
	if runner == nil {
		return nil, errors.New("turn runner is required")
	}
	if store == nil {
		return nil, errors.New("conversation store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	s := &Service{
		runner: runner,
		store:  store,
		models: opts.Models,
		prices: opts.Prices,
		logger: opts.Logger.Named("assistant"),
		now:    opts.Now,
		newID:  opts.NewID,
		tracer: otel.Tracer(instrumentationName),
	}

	var err error
	s.turnsCounter, err = otel.Meter(instrumentationName).Int64Counter(
		"agentmesh.assistant.turns_total",
		metric.WithDescription("Total number of conversation turns"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create turns counter", zap.Error(err))
	}
	return s, nil
}

// NewConversation starts an empty conversation and returns its ID.
func (s *Service) NewConversation() string {
	id := s.newID()
	s.store.GetOrCreate(id)
	return id
}

// Ask runs one turn of an existing conversation.
func (s *Service) Ask(ctx context.Context, conversationID, text string) (*Answer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyRequest
	}
	m, ok := s.store.Get(conversationID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	turnID := s.newID()
	ctx = logging.WithConversationID(ctx, conversationID)
	ctx = logging.WithTurnID(ctx, turnID)

	ctx, span := s.tracer.Start(ctx, "assistant.ask")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.String("turn.id", turnID),
	)

	release, err := m.BeginTurn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("wait for conversation %s: %w", conversationID, err)
	}
	defer release()

	requestedAt := s.now().UTC()
	state, err := s.runner.Run(ctx, text, m.Messages())
	if err != nil {
		s.countTurn(ctx, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("turn %s: %w", turnID, err)
	}

	summary, err := m.Record(ctx, conversation.Turn{
		Request:     text,
		RequestedAt: requestedAt,
		Answer:      state.FinalAnswer,
		Ingress:     state.UsageFor(agent.NameContextAnalyzer),
		Egress:      state.UsageFor(agent.NamePersonalAssistant),
	})
	if err != nil {
		// The turn is recorded; summarization is retried next turn.
		s.logger.Warn(ctx, "conversation summarization failed", zap.Error(err))
	}

	usage := append([]workflow.TokenUsage(nil), state.TokenUsage...)
	if summary != nil {
		usage = append(usage, workflow.TokenUsage{
			Agent:        agent.NameConversationSummarizer,
			InputTokens:  summary.Usage.InputTokens,
			OutputTokens: summary.Usage.OutputTokens,
			TotalTokens:  summary.Usage.TotalTokens,
		})
	}

	report := NewReport(usage, s.models, s.prices)
	span.SetAttributes(attribute.Int("tokens.total", report.Total.TotalTokens))
	s.countTurn(ctx, "success")
	s.logger.Info(ctx, "turn answered",
		zap.Int("history", m.Len()),
		zap.Int("tokens", report.Total.TotalTokens),
		zap.Float64("cost", report.Cost),
		zap.Bool("summarized", summary != nil),
	)

	return &Answer{
		ConversationID: conversationID,
		TurnID:         turnID,
		Text:           state.FinalAnswer,
		State:          state,
		Usage:          usage,
		Report:         report,
		Summary:        summary,
	}, nil
}

// History returns the messages of a conversation.
func (s *Service) History(conversationID string) ([]conversation.Message, error) {
	m, ok := s.store.Get(conversationID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	return m.Messages(), nil
}

// Delete drops a conversation.
func (s *Service) Delete(conversationID string) error {
	if !s.store.Delete(conversationID) {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	return nil
}

// Conversations lists the conversation IDs.
func (s *Service) Conversations() []string {
	return s.store.IDs()
}

func (s *Service) countTurn(ctx context.Context, outcome string) {
	if s.turnsCounter == nil {
		return
	}
	s.turnsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
