package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/fyrsmithlabs/agentmesh/internal/llm"

// ChatOptions are the per-agent generation settings.
type ChatOptions struct {
	Agent       string
	Model       string
	Temperature *float64
	MaxTokens   int
}

// ChatGateway implements Gateway on top of a langchaingo model.
type ChatGateway struct {
	model    llms.Model
	opts     ChatOptions
	provider string
	limiter  *rate.Limiter
	logger   *logging.Logger
	tracer   trace.Tracer
}

// OpenAIConfig holds the connection settings of an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Organization string
	Timeout      time.Duration
}

// NewOpenAIModel creates a langchaingo OpenAI client. BaseURL may point at
// any OpenAI-compatible server.
func NewOpenAIModel(cfg OpenAIConfig, model string) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key required")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, openai.WithOrganization(cfg.Organization))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return client, nil
}

// NewChatGateway wraps a langchaingo model. limiter may be nil.
func NewChatGateway(model llms.Model, provider string, opts ChatOptions, limiter *rate.Limiter, logger *logging.Logger) *ChatGateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ChatGateway{
		model:    model,
		opts:     opts,
		provider: provider,
		limiter:  limiter,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// Generate sends the conversation and returns the first choice.
func (g *ChatGateway) Generate(ctx context.Context, systemPrompt string, messages []Message) (*Response, error) {
	ctx, span := g.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("agent", g.opts.Agent),
		attribute.String("model", g.opts.Model),
		attribute.Int("messages", len(messages)),
	))
	defer span.End()

	if g.limiter != nil {
		waitStart := time.Now()
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		RateLimitWait.WithLabelValues(g.provider).Observe(time.Since(waitStart).Seconds())
	}

	content := toMessageContent(systemPrompt, messages)
	g.logger.Trace(ctx, "model request",
		zap.String("model", g.opts.Model),
		zap.String("system_prompt", systemPrompt),
		zap.Int("messages", len(messages)),
	)

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, content, g.callOptions()...)
	elapsed := time.Since(start)

	if err != nil {
		err = classifyError(err)
		recordCall(g.opts.Agent, g.opts.Model, Usage{}, elapsed.Seconds(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		recordCall(g.opts.Agent, g.opts.Model, Usage{}, elapsed.Seconds(), ErrEmptyChoices)
		return nil, ErrEmptyChoices
	}

	choice := resp.Choices[0]
	usage := usageFromGenerationInfo(choice.GenerationInfo)
	recordCall(g.opts.Agent, g.opts.Model, usage, elapsed.Seconds(), nil)

	span.SetAttributes(
		attribute.Int("tokens.input", usage.InputTokens),
		attribute.Int("tokens.output", usage.OutputTokens),
	)
	g.logger.Debug(ctx, "model response",
		zap.String("model", g.opts.Model),
		zap.Duration("duration", elapsed),
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
		logging.Truncated("text", choice.Content, 512),
	)

	return &Response{Text: choice.Content, Model: g.opts.Model, Usage: usage}, nil
}

func (g *ChatGateway) callOptions() []llms.CallOption {
	var opts []llms.CallOption
	if g.opts.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*g.opts.Temperature))
	}
	if g.opts.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.opts.MaxTokens))
	}
	return opts
}

func toMessageContent(systemPrompt string, messages []Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, m := range messages {
		content = append(content, llms.TextParts(messageType(m.Role), m.Content))
	}
	return content
}

func messageType(r Role) llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// The OpenAI backend reports usage through GenerationInfo with int values.
func usageFromGenerationInfo(info map[string]any) Usage {
	u := Usage{
		InputTokens:  intValue(info["PromptTokens"]),
		OutputTokens: intValue(info["CompletionTokens"]),
		TotalTokens:  intValue(info["TotalTokens"]),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func isToolChoiceNone(err error) bool {
	return errors.Is(err, ErrToolChoiceNone)
}
