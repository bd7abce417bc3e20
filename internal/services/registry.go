package services

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/agentmesh/internal/agent"
	"github.com/fyrsmithlabs/agentmesh/internal/assistant"
	"github.com/fyrsmithlabs/agentmesh/internal/codecheck"
	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/resilience"
	"github.com/fyrsmithlabs/agentmesh/internal/sandbox"
	"github.com/fyrsmithlabs/agentmesh/internal/workflow"
)

// Registry provides access to the assembled agentmesh services.
type Registry interface {
	Config() *config.Config
	Agents() *agent.Set
	Engine() *workflow.Engine
	Conversations() *conversation.Store
	Assistant() *assistant.Service
}

// Options overrides collaborators NewRegistry would otherwise build from
// configuration.
type Options struct {
	Logger *logging.Logger
	// Gateways defaults to an llm.Factory on the configured providers.
	Gateways agent.GatewaySource
	// Runner defaults to the yaegi sandbox.
	Runner sandbox.Runner
	// Notifier receives workflow progress. Defaults to none.
	Notifier workflow.Notifier
	// Meter records workflow metrics. Nil uses the global provider.
	Meter metric.Meter
	Now   func() time.Time
}

// registry is the concrete implementation of Registry.
type registry struct {
	config        *config.Config
	agents        *agent.Set
	engine        *workflow.Engine
	conversations *conversation.Store
	assistant     *assistant.Service
}

// NewRegistry builds every service from cfg.
func NewRegistry(cfg *config.Config, opts Options) (Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	gateways := opts.Gateways
	if gateways == nil {
		gateways = llm.NewFactory(cfg, logger)
	}

	analyzer, err := codecheck.FromConfig(cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to build static analyzer: %w", err)
	}

	policy := resilience.FromConfig(cfg.Resilience, agent.Recoverable,
		resilience.LogObserver(logger),
		resilience.MetricsObserver(),
	)
	agents, err := agent.NewSet(cfg, gateways, analyzer, agent.Deps{
		Policy: policy,
		Logger: logger,
		Now:    opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build agents: %w", err)
	}

	runner := opts.Runner
	if runner == nil {
		runner = sandbox.New(cfg.Sandbox, logger)
	}

	metrics, err := workflow.NewMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow metrics: %w", err)
	}
	engine, err := workflow.NewEngine(agents, runner, workflow.Options{
		Limits:          workflow.LimitsFromConfig(cfg.Workflow),
		WorkingLanguage: cfg.Workflow.WorkingLanguage,
		Notifier:        opts.Notifier,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow engine: %w", err)
	}

	var summarizer conversation.Summarizer
	if agents.Summarizer != nil {
		summarizer = agents.Summarizer
	}
	convOpts := conversation.OptionsFromConfig(cfg.Conversation)
	convOpts.Now = opts.Now
	store := conversation.NewStore(func() *conversation.Manager {
		return conversation.NewManager(summarizer, convOpts, logger)
	})

	svc, err := assistant.NewService(engine, store, assistant.Options{
		Models: assistant.ModelsFromConfig(cfg),
		Prices: llm.NewPriceTable(cfg.Pricing),
		Logger: logger,
		Now:    opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build assistant: %w", err)
	}

	return &registry{
		config:        cfg,
		agents:        agents,
		engine:        engine,
		conversations: store,
		assistant:     svc,
	}, nil
}

func (r *registry) Config() *config.Config             { return r.config }
func (r *registry) Agents() *agent.Set                 { return r.agents }
func (r *registry) Engine() *workflow.Engine           { return r.engine }
func (r *registry) Conversations() *conversation.Store { return r.conversations }
func (r *registry) Assistant() *assistant.Service      { return r.assistant }
