package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/resilience"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("agentmesh/agent")

// Agent names, as recorded in token usage entries and retry events.
const (
	NameContextAnalyzer        = "ContextAnalyzer"
	NameTranslator             = "Translator"
	NameRouter                 = "Router"
	NameBusinessRequirements   = "BusinessRequirementsCreator"
	NameBusinessAdvisor        = "BusinessAdvisor"
	NameCoder                  = "Coder"
	NameStaticAnalyzer         = "CodeStaticAnalyzer"
	NameCodeFixer              = "CodeFixer"
	NameResultsPresenter       = "ResultsPresenter"
	NamePersonalAssistant      = "PersonalAssistant"
	NameConversationSummarizer = "ConversationSummarizer"
	NameFailuresDetector       = "CodeExecutionFailuresDetector"
)

// Agent turns one typed input into one typed output.
type Agent[I, O any] interface {
	Execute(ctx context.Context, in I) (O, error)
}

// Func adapts a function to Agent.
type Func[I, O any] func(ctx context.Context, in I) (O, error)

// Execute calls f.
func (f Func[I, O]) Execute(ctx context.Context, in I) (O, error) {
	return f(ctx, in)
}

// Deps are the collaborators shared by every model-backed agent.
type Deps struct {
	Policy *resilience.Policy
	Logger *logging.Logger
	// Now stamps the date system message. Defaults to time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// base holds what every model-backed agent needs for one call.
type base struct {
	name    string
	gateway llm.Gateway
	prompt  string
	policy  *resilience.Policy
	logger  *logging.Logger
	now     func() time.Time
}

func newBase(name string, gateway llm.Gateway, prompt string, deps Deps) base {
	deps = deps.withDefaults()
	return base{
		name:    name,
		gateway: gateway,
		prompt:  prompt,
		policy:  deps.Policy,
		logger:  deps.Logger.Named(name),
		now:     deps.Now,
	}
}

func (b *base) dateMessage() llm.Message {
	return DateMessage(b.now())
}

// attempt is the accepted value of one call together with its usage.
type attempt[T any] struct {
	value T
	usage llm.Usage
}

// call sends messages through the retry policy and parses the trimmed
// answer. Blank answers fail with ErrEmptyResponse before parse runs.
func call[T any](ctx context.Context, b *base, messages []llm.Message, parse func(text string) (T, error)) (T, llm.Usage, error) {
	ctx = logging.WithAgent(ctx, b.name)
	ctx, span := tracer.Start(ctx, "agent."+b.name)
	defer span.End()

	b.logger.Debug(ctx, "executing agent", zap.Int("messages", len(messages)))
	start := time.Now()

	res, err := resilience.Execute(ctx, b.policy, b.name, func(ctx context.Context) (attempt[T], error) {
		resp, err := b.gateway.Generate(ctx, b.prompt, messages)
		if err != nil {
			return attempt[T]{}, err
		}
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			b.logger.Warn(ctx, "model response is empty")
			return attempt[T]{}, ErrEmptyResponse
		}
		b.logger.Trace(ctx, "model response", logging.Truncated("response", text, 4096))

		v, err := parse(text)
		if err != nil {
			b.logger.Warn(ctx, "model response rejected", zap.Error(err), logging.Truncated("response", text, 1024))
			return attempt[T]{}, err
		}
		return attempt[T]{value: v, usage: resp.Usage}, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var zero T
		return zero, llm.Usage{}, fmt.Errorf("%s agent: %w", b.name, err)
	}

	span.SetAttributes(
		attribute.Int("tokens.input", res.usage.InputTokens),
		attribute.Int("tokens.output", res.usage.OutputTokens),
	)
	b.logger.Debug(ctx, "agent completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("total_tokens", res.usage.TotalTokens),
	)
	return res.value, res.usage, nil
}

// freeForm accepts any non-empty answer as is.
func freeForm(s string) (string, error) { return s, nil }
