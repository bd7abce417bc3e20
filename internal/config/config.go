// Package config provides configuration loading for agentmesh.
//
// Configuration is read from a YAML file and overridden by AGENTMESH_*
// environment variables. Every agent gets its own section so model,
// temperature and prompts can be tuned per agent; values missing there fall
// back to the top-level llm section.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Agent configuration keys.
const (
	AgentRouter                    = "router"
	AgentTranslator                = "translator"
	AgentContextAnalyzer           = "context_analyzer"
	AgentBusinessRequirements      = "business_requirements_creator"
	AgentBusinessAdvisor           = "business_advisor"
	AgentCoder                     = "coder"
	AgentCodeFixer                 = "code_fixer"
	AgentResultsPresenter          = "results_presenter"
	AgentPersonalAssistant         = "personal_assistant"
	AgentConversationSummarizer    = "conversation_summarizer"
	AgentExecutionFailuresDetector = "execution_failures_detector"
)

// Token estimate modes for the conversation manager.
const (
	TokenEstimateProxy      = "proxy"
	TokenEstimateCumulative = "cumulative"
)

// Config holds the complete agentmesh configuration.
type Config struct {
	Server        ServerConfig              `koanf:"server"`
	Logging       LoggingConfig             `koanf:"logging"`
	Observability ObservabilityConfig       `koanf:"observability"`
	LLM           LLMConfig                 `koanf:"llm"`
	Providers     map[string]ProviderConfig `koanf:"providers"`
	Agents        map[string]AgentConfig    `koanf:"agents"`
	Resilience    ResilienceConfig          `koanf:"resilience"`
	Workflow      WorkflowConfig            `koanf:"workflow"`
	Conversation  ConversationConfig        `koanf:"conversation"`
	Sandbox       SandboxConfig             `koanf:"sandbox"`
	Router        RouterConfig              `koanf:"router"`
	Analysis      AnalysisConfig            `koanf:"analysis"`
	Notifications NotificationsConfig       `koanf:"notifications"`
	Pricing       map[string]PricingConfig  `koanf:"pricing"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	TurnTimeout     Duration `koanf:"turn_timeout"`
}

// LoggingConfig is the flat logging surface of the config file. The logging
// package expands it into its full configuration.
type LoggingConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Stderr          bool   `koanf:"stderr"`
	OTEL            bool   `koanf:"otel"`
	DisableSampling bool   `koanf:"disable_sampling"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool     `koanf:"enable_telemetry"`
	Endpoint        string   `koanf:"endpoint"`
	Insecure        bool     `koanf:"insecure"`
	ServiceName     string   `koanf:"service_name"`
	SamplingRate    float64  `koanf:"sampling_rate"`
	ExportInterval  Duration `koanf:"export_interval"`
}

// LLMConfig selects a model on a provider.
type LLMConfig struct {
	Provider    string   `koanf:"provider"`
	Model       string   `koanf:"model"`
	Temperature *float64 `koanf:"temperature"`
	MaxTokens   int      `koanf:"max_tokens"`
}

// ProviderConfig holds the connection settings of a chat-completion provider.
type ProviderConfig struct {
	APIKey            Secret   `koanf:"api_key"`
	Endpoint          string   `koanf:"endpoint"`
	Organization      string   `koanf:"organization"`
	RequestsPerMinute int      `koanf:"requests_per_minute"`
	Timeout           Duration `koanf:"timeout"`
}

// AgentConfig holds the per-agent model and prompt settings.
type AgentConfig struct {
	LLM                  LLMConfig `koanf:"llm"`
	SystemPrompt         string    `koanf:"system_prompt"`
	SystemPromptFile     string    `koanf:"system_prompt_file"`
	APIDocumentation     string    `koanf:"api_documentation"`
	APIDocumentationFile string    `koanf:"api_documentation_file"`
}

// ResilienceConfig controls the retry policy wrapped around agent calls.
type ResilienceConfig struct {
	RetryCount *int     `koanf:"retry_count"`
	Delay      Duration `koanf:"delay"`
}

// WorkflowConfig bounds the turn state machine.
type WorkflowConfig struct {
	WorkingLanguage  string `koanf:"working_language"`
	MaxFixIterations int    `koanf:"max_fix_iterations"`
	MaxRuntimeChecks int    `koanf:"max_runtime_checks"`
	MaxSteps         int    `koanf:"max_steps"`
}

// ConversationConfig controls history summarization.
type ConversationConfig struct {
	SummaryTokenThreshold int    `koanf:"summary_token_threshold"`
	MessagesToPreserve    int    `koanf:"messages_to_preserve"`
	TokenEstimate         string `koanf:"token_estimate"`
	SummaryLanguage       string `koanf:"summary_language"`
}

// SandboxConfig controls generated code execution.
type SandboxConfig struct {
	Timeout        Duration `koanf:"timeout"`
	AllowedImports []string `koanf:"allowed_imports"`
	MaxOutputBytes int      `koanf:"max_output_bytes"`
}

// RouterConfig restricts the recipients the router may name. Empty means
// the router output is passed to the workflow unchecked.
type RouterConfig struct {
	AllowedRecipients []string `koanf:"allowed_recipients"`
}

// AnalysisConfig extends the static analyzer rule set.
type AnalysisConfig struct {
	DisableDefaultRules bool         `koanf:"disable_default_rules"`
	Rules               []RuleConfig `koanf:"rules"`
}

// RuleConfig is one pattern check of the static analyzer.
type RuleConfig struct {
	ID      string `koanf:"id"`
	Pattern string `koanf:"pattern"`
	Message string `koanf:"message"`
}

// NotificationsConfig selects progress notifiers.
type NotificationsConfig struct {
	Console bool       `koanf:"console"`
	Log     bool       `koanf:"log"`
	NATS    NATSConfig `koanf:"nats"`
}

// NATSConfig publishes workflow progress events to NATS.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// PricingConfig is the cost of one model in currency units per million tokens.
type PricingConfig struct {
	InputPerMillion  float64 `koanf:"input_per_million"`
	OutputPerMillion float64 `koanf:"output_per_million"`
}

// Agent returns the settings of the named agent with the top-level llm
// section filled in for anything the agent leaves unset.
func (c *Config) Agent(key string) AgentConfig {
	a := c.Agents[key]
	if a.LLM.Provider == "" {
		a.LLM.Provider = c.LLM.Provider
	}
	if a.LLM.Model == "" {
		a.LLM.Model = c.LLM.Model
	}
	if a.LLM.Temperature == nil {
		a.LLM.Temperature = c.LLM.Temperature
	}
	if a.LLM.MaxTokens == 0 {
		a.LLM.MaxTokens = c.LLM.MaxTokens
	}
	return a
}

// Retries returns the configured retry count.
func (r ResilienceConfig) Retries() int {
	if r.RetryCount == nil {
		return defaultRetryCount
	}
	return *r.RetryCount
}

// Prompt returns the inline system prompt, or the content of the prompt file
// when no inline prompt is set. Empty means the built-in prompt applies.
func (a AgentConfig) Prompt() (string, error) {
	return inlineOrFile(a.SystemPrompt, a.SystemPromptFile)
}

// Documentation returns the API documentation handed to code-writing agents.
func (a AgentConfig) Documentation() (string, error) {
	return inlineOrFile(a.APIDocumentation, a.APIDocumentationFile)
}

func inlineOrFile(inline, path string) (string, error) {
	if inline != "" || path == "" {
		return inline, nil
	}
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.LLM.Provider == "" {
		errs = append(errs, errors.New("llm.provider is required"))
	}
	for key, a := range c.Agents {
		provider := a.LLM.Provider
		if provider == "" {
			provider = c.LLM.Provider
		}
		if _, ok := c.Providers[provider]; !ok {
			errs = append(errs, fmt.Errorf("agents.%s: unknown provider %q", key, provider))
		}
		if t := a.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
			errs = append(errs, fmt.Errorf("agents.%s: temperature must be in 0..2", key))
		}
	}
	if _, ok := c.Providers[c.LLM.Provider]; !ok && c.LLM.Provider != "" {
		errs = append(errs, fmt.Errorf("llm.provider %q has no providers section", c.LLM.Provider))
	}
	if c.Resilience.Retries() < 0 {
		errs = append(errs, errors.New("resilience.retry_count must be >= 0"))
	}
	if c.Workflow.MaxFixIterations < 0 || c.Workflow.MaxRuntimeChecks < 0 {
		errs = append(errs, errors.New("workflow iteration bounds must be >= 0"))
	}
	if c.Conversation.MessagesToPreserve < 0 {
		errs = append(errs, errors.New("conversation.messages_to_preserve must be >= 0"))
	}
	switch c.Conversation.TokenEstimate {
	case TokenEstimateProxy, TokenEstimateCumulative:
	default:
		errs = append(errs, fmt.Errorf("conversation.token_estimate must be %q or %q, got %q",
			TokenEstimateProxy, TokenEstimateCumulative, c.Conversation.TokenEstimate))
	}
	for i, r := range c.Analysis.Rules {
		if r.Pattern == "" || r.Message == "" {
			errs = append(errs, fmt.Errorf("analysis.rules[%d]: pattern and message are required", i))
			continue
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("analysis.rules[%d]: %w", i, err))
		}
	}
	if c.Notifications.NATS.Enabled && c.Notifications.NATS.URL == "" {
		errs = append(errs, errors.New("notifications.nats.url is required when nats is enabled"))
	}

	return errors.Join(errs...)
}
