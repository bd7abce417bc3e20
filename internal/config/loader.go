package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
	envPrefix         = "AGENTMESH_"

	defaultRetryCount = 2
)

// Sections whose keys are map entries; env names for them carry one more
// level (AGENTMESH_PROVIDERS_OPENAI_API_KEY -> providers.openai.api_key).
var mapSections = map[string]bool{
	"providers": true,
	"pricing":   true,
}

// DefaultPath returns ~/.config/agentmesh/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "agentmesh", "config.yaml"), nil
}

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (AGENTMESH_SERVER_PORT, AGENTMESH_LLM_MODEL, ...)
//  2. YAML config file (~/.config/agentmesh/config.yaml by default)
//  3. Built-in defaults
//
// The file may hold provider API keys, so it must be 0600 or 0400 and at
// most 1MB. A missing file is not an error.
//
// # Environment Variable Mapping
//
// The AGENTMESH_ prefix is stripped and the first underscore separates the
// section from the field:
//
//	AGENTMESH_SERVER_PORT                 -> server.port
//	AGENTMESH_CONVERSATION_TOKEN_ESTIMATE -> conversation.token_estimate
//	AGENTMESH_PROVIDERS_OPENAI_API_KEY    -> providers.openai.api_key
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if content, err := readConfigFile(configPath); err != nil {
		return nil, err
	} else if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg, k.Exists)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration, with provider credentials
// picked up from the conventional environment variables.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg, func(string) bool { return false })
	return &cfg
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	section, field := parts[0], parts[1]
	if mapSections[section] {
		if entry := strings.SplitN(field, "_", 2); len(entry) == 2 {
			return section + "." + entry[0] + "." + entry[1]
		}
	}
	return section + "." + field
}

// readConfigFile returns nil content when the file does not exist.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(expandHome(path))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	// Validate through the open descriptor to avoid a TOCTOU race.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
// Fields where zero is meaningful are only defaulted when set reports the
// key absent from every source.
func applyDefaults(cfg *Config, set func(key string) bool) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.TurnTimeout == 0 {
		cfg.Server.TurnTimeout = Duration(5 * time.Minute)
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "agentmesh"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.SamplingRate == 0 {
		cfg.Observability.SamplingRate = 1.0
	}
	if cfg.Observability.ExportInterval == 0 {
		cfg.Observability.ExportInterval = Duration(15 * time.Second)
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	openai := cfg.Providers["openai"]
	if !openai.APIKey.IsSet() {
		openai.APIKey = Secret(os.Getenv("OPENAI_API_KEY"))
	}
	if openai.Timeout == 0 {
		openai.Timeout = Duration(2 * time.Minute)
	}
	cfg.Providers["openai"] = openai

	if cfg.Resilience.RetryCount == nil {
		n := defaultRetryCount
		cfg.Resilience.RetryCount = &n
	}
	if cfg.Resilience.Delay == 0 {
		cfg.Resilience.Delay = Duration(5 * time.Second)
	}

	if cfg.Workflow.WorkingLanguage == "" {
		cfg.Workflow.WorkingLanguage = "English"
	}
	if !set("workflow.max_fix_iterations") {
		cfg.Workflow.MaxFixIterations = 2
	}
	if cfg.Workflow.MaxSteps == 0 {
		cfg.Workflow.MaxSteps = 64
	}

	if !set("conversation.summary_token_threshold") {
		cfg.Conversation.SummaryTokenThreshold = 20000
	}
	if !set("conversation.messages_to_preserve") {
		cfg.Conversation.MessagesToPreserve = 4
	}
	if cfg.Conversation.TokenEstimate == "" {
		cfg.Conversation.TokenEstimate = TokenEstimateProxy
	}
	if cfg.Conversation.SummaryLanguage == "" {
		cfg.Conversation.SummaryLanguage = cfg.Workflow.WorkingLanguage
	}

	if cfg.Sandbox.Timeout == 0 {
		cfg.Sandbox.Timeout = Duration(10 * time.Second)
	}
	if cfg.Sandbox.MaxOutputBytes == 0 {
		cfg.Sandbox.MaxOutputBytes = 64 * 1024
	}
	if len(cfg.Sandbox.AllowedImports) == 0 {
		cfg.Sandbox.AllowedImports = []string{
			"fmt", "strings", "strconv", "math", "sort", "time",
			"errors", "bytes", "unicode", "encoding/json", "regexp",
		}
	}

	if cfg.Notifications.NATS.SubjectPrefix == "" {
		cfg.Notifications.NATS.SubjectPrefix = "agentmesh"
	}
}
