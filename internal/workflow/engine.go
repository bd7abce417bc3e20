package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/agentmesh/internal/agent"
	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/sandbox"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultWorkingLanguage is the language agents work in between
// translation and final composition.
const DefaultWorkingLanguage = "English"

// Options configures an Engine.
type Options struct {
	Limits          Limits
	WorkingLanguage string
	Notifier        Notifier
	Logger          *logging.Logger
	// Metrics may be nil.
	Metrics *Metrics
}

// Engine runs turns. It holds no per-turn state and may run turns of
// different conversations concurrently.
type Engine struct {
	agents   *agent.Set
	runner   sandbox.Runner
	limits   Limits
	language string
	notifier Notifier
	logger   *logging.Logger
	metrics  *Metrics
	steps    map[Step]stepDef
}

// NewEngine validates the agent set and builds an engine.
func NewEngine(agents *agent.Set, runner sandbox.Runner, opts Options) (*Engine, error) {
	if agents == nil {
		return nil, errors.New("agent set is required")
	}
	if runner == nil {
		return nil, errors.New("sandbox runner is required")
	}
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if opts.Limits.MaxSteps <= 0 {
		opts.Limits.MaxSteps = DefaultLimits().MaxSteps
	}
	if opts.WorkingLanguage == "" {
		opts.WorkingLanguage = DefaultWorkingLanguage
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if missing := missingAgents(agents, opts.Limits); len(missing) > 0 {
		return nil, fmt.Errorf("agent set is missing: %s", strings.Join(missing, ", "))
	}

	e := &Engine{
		agents:   agents,
		runner:   runner,
		limits:   opts.Limits,
		language: opts.WorkingLanguage,
		notifier: opts.Notifier,
		logger:   opts.Logger.Named("workflow"),
		metrics:  opts.Metrics,
	}
	e.steps = e.stepTable()
	return e, nil
}

func missingAgents(a *agent.Set, limits Limits) []string {
	var missing []string
	check := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check(a.ContextAnalyzer != nil, agent.NameContextAnalyzer)
	check(a.Translator != nil, agent.NameTranslator)
	check(a.Router != nil, agent.NameRouter)
	check(a.BusinessRequirements != nil, agent.NameBusinessRequirements)
	check(a.BusinessAdvisor != nil, agent.NameBusinessAdvisor)
	check(a.Coder != nil, agent.NameCoder)
	check(a.StaticAnalyzer != nil, agent.NameStaticAnalyzer)
	check(a.CodeFixer != nil, agent.NameCodeFixer)
	check(a.ResultsPresenter != nil, agent.NameResultsPresenter)
	check(a.PersonalAssistant != nil, agent.NamePersonalAssistant)
	if limits.MaxRuntimeChecks > 0 {
		check(a.FailuresDetector != nil, agent.NameFailuresDetector)
	}
	return missing
}

// Limits returns the bounds the engine runs turns with.
func (e *Engine) Limits() Limits {
	return e.limits
}

// Run executes one turn for request on top of history. The returned state
// is non-nil even on error and shows how far the turn got.
func (e *Engine) Run(ctx context.Context, request string, history []conversation.Message) (*State, error) {
	ctx, span := tracer.Start(ctx, "workflow.Run")
	defer span.End()

	s := NewState(request, history)
	start := time.Now()

	e.notifier.OnWorkflowStart(ctx)
	defer e.notifier.OnWorkflowEnd(ctx)

	err := e.drive(ctx, s)

	branch := s.RouterRecipient
	if r, ok := agent.ParseRecipient(branch); ok {
		branch = string(r)
	}
	e.metrics.recordTurn(ctx, branch, time.Since(start), err)
	span.SetAttributes(
		attribute.String("workflow.branch", branch),
		attribute.Int("workflow.fix_iterations", s.CodeFixIterationCount),
		attribute.Int("tokens.total", s.TotalUsage().TotalTokens),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn(ctx, "turn failed", zap.Error(err), zap.String("branch", branch))
		return s, err
	}
	e.logger.Info(ctx, "turn completed",
		zap.String("branch", branch),
		zap.Int("agent_calls", len(s.TokenUsage)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s, nil
}

func (e *Engine) drive(ctx context.Context, s *State) error {
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		step, err := NextStep(s, e.limits)
		if err != nil {
			return err
		}
		if step == StepCompleted {
			return nil
		}
		if steps >= e.limits.MaxSteps {
			return fmt.Errorf("%w: %d steps, next was %s", ErrStepLimit, steps, step)
		}
		if err := e.runStep(ctx, step, s); err != nil {
			return fmt.Errorf("step %s: %w", step, err)
		}
	}
}

func (e *Engine) runStep(ctx context.Context, step Step, s *State) error {
	def, ok := e.steps[step]
	if !ok {
		return fmt.Errorf("no handler for step %s", step)
	}

	ctx = logging.WithStep(ctx, step.String())
	ctx, span := tracer.Start(ctx, "workflow."+step.String())
	defer span.End()

	name := step.DisplayName(s)
	e.logger.Debug(ctx, "engaging step", zap.String("name", name))
	e.notifier.OnStepStart(ctx, name, def.inputs(s))

	start := time.Now()
	outputs, err := def.run(ctx, s)
	e.metrics.recordStep(ctx, step, time.Since(start), err)

	if err != nil {
		StepsTotal.WithLabelValues(step.String(), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	StepsTotal.WithLabelValues(step.String(), "success").Inc()
	e.notifier.OnStepEnd(ctx, name, outputs)
	return nil
}
