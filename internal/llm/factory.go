package llm

import (
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// ModelConstructor creates a provider model for the given connection settings.
type ModelConstructor func(provider config.ProviderConfig, model string) (llms.Model, error)

// Factory builds one gateway per agent and shares a rate limiter per provider.
type Factory struct {
	cfg          *config.Config
	logger       *logging.Logger
	constructors map[string]ModelConstructor

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFactory creates a gateway factory with the OpenAI constructor registered.
func NewFactory(cfg *config.Config, logger *logging.Logger) *Factory {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Factory{
		cfg:      cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		constructors: map[string]ModelConstructor{
			"openai": func(p config.ProviderConfig, model string) (llms.Model, error) {
				return NewOpenAIModel(OpenAIConfig{
					APIKey:       p.APIKey.Value(),
					BaseURL:      p.Endpoint,
					Organization: p.Organization,
					Timeout:      p.Timeout.Duration(),
				}, model)
			},
		},
	}
}

// RegisterProvider adds or replaces the constructor of a provider.
func (f *Factory) RegisterProvider(name string, ctor ModelConstructor) {
	f.constructors[name] = ctor
}

// Gateway builds the gateway of the agent stored under key in the config.
// agentName labels metrics and spans.
func (f *Factory) Gateway(key, agentName string) (Gateway, error) {
	agentCfg := f.cfg.Agent(key)
	providerName := agentCfg.LLM.Provider

	providerCfg, ok := f.cfg.Providers[providerName]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w: %s", key, ErrProviderNotConfigured, providerName)
	}
	ctor, ok := f.constructors[providerName]
	if !ok {
		return nil, fmt.Errorf("agent %s: no client for provider %s", key, providerName)
	}

	model, err := ctor(providerCfg, agentCfg.LLM.Model)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", key, err)
	}

	return NewChatGateway(model, providerName, ChatOptions{
		Agent:       agentName,
		Model:       agentCfg.LLM.Model,
		Temperature: agentCfg.LLM.Temperature,
		MaxTokens:   agentCfg.LLM.MaxTokens,
	}, f.limiter(providerName, providerCfg.RequestsPerMinute), f.logger.Named(agentName)), nil
}

func (f *Factory) limiter(provider string, rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[provider]; ok {
		return l
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	l := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
	f.limiters[provider] = l
	return l
}
