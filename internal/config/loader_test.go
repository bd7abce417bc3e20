package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.Resilience.Retries())
	assert.Equal(t, 5*time.Second, cfg.Resilience.Delay.Duration())
	assert.Equal(t, "English", cfg.Workflow.WorkingLanguage)
	assert.Equal(t, 2, cfg.Workflow.MaxFixIterations)
	assert.Equal(t, 0, cfg.Workflow.MaxRuntimeChecks)
	assert.Equal(t, TokenEstimateProxy, cfg.Conversation.TokenEstimate)
	assert.Equal(t, "sk-from-env", cfg.Providers["openai"].APIKey.Value())
	assert.Contains(t, cfg.Sandbox.AllowedImports, "fmt")
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9191
llm:
  provider: openai
  model: gpt-4o
  temperature: 0.2
providers:
  openai:
    api_key: sk-test
    endpoint: http://localhost:1234/v1
agents:
  coder:
    llm:
      model: gpt-4.1
      temperature: 0
    system_prompt: "write go"
resilience:
  retry_count: 0
  delay: 250ms
router:
  allowed_recipients: [PersonalAssistant, BusinessAdvisor]
analysis:
  rules:
    - id: no-exit
      pattern: 'os\.Exit'
      message: do not exit the process
pricing:
  gpt-4o:
    input_per_million: 2.5
    output_per_million: 10
`, 0600)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Providers["openai"].APIKey.Value())
	assert.Equal(t, "http://localhost:1234/v1", cfg.Providers["openai"].Endpoint)
	assert.Equal(t, 0, cfg.Resilience.Retries())
	assert.Equal(t, 250*time.Millisecond, cfg.Resilience.Delay.Duration())
	assert.Equal(t, []string{"PersonalAssistant", "BusinessAdvisor"}, cfg.Router.AllowedRecipients)
	require.Len(t, cfg.Analysis.Rules, 1)
	assert.Equal(t, "no-exit", cfg.Analysis.Rules[0].ID)
	assert.InDelta(t, 2.5, cfg.Pricing["gpt-4o"].InputPerMillion, 1e-9)

	coder := cfg.Agent(AgentCoder)
	assert.Equal(t, "gpt-4.1", coder.LLM.Model)
	require.NotNil(t, coder.LLM.Temperature)
	assert.Equal(t, 0.0, *coder.LLM.Temperature)

	router := cfg.Agent(AgentRouter)
	assert.Equal(t, "gpt-4o", router.LLM.Model, "unset agent falls back to llm section")
	require.NotNil(t, router.LLM.Temperature)
	assert.InDelta(t, 0.2, *router.LLM.Temperature, 1e-9)
}

func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9191\n", 0600)
	t.Setenv("AGENTMESH_SERVER_PORT", "7777")
	t.Setenv("AGENTMESH_CONVERSATION_MESSAGES_TO_PRESERVE", "6")
	t.Setenv("AGENTMESH_PROVIDERS_OPENAI_API_KEY", "sk-env-override")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Conversation.MessagesToPreserve)
	assert.Equal(t, "sk-env-override", cfg.Providers["openai"].APIKey.Value())
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9191\n", 0644)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [port\n", 0600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
}

func TestLoadWithFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown token estimate",
			yaml:    "conversation:\n  token_estimate: exact\n",
			wantErr: "token_estimate",
		},
		{
			name:    "bad rule pattern",
			yaml:    "analysis:\n  rules:\n    - pattern: '('\n      message: broken\n",
			wantErr: "analysis.rules[0]",
		},
		{
			name:    "agent on unknown provider",
			yaml:    "agents:\n  router:\n    llm:\n      provider: nowhere\n",
			wantErr: "unknown provider",
		},
		{
			name:    "nats without url",
			yaml:    "notifications:\n  nats:\n    enabled: true\n",
			wantErr: "nats.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithFile(writeConfig(t, tt.yaml, 0600))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAgentConfig_PromptFromFile(t *testing.T) {
	dir := t.TempDir()
	promptPath := filepath.Join(dir, "router.md")
	require.NoError(t, os.WriteFile(promptPath, []byte("  route carefully \n"), 0600))

	a := AgentConfig{SystemPromptFile: promptPath}
	prompt, err := a.Prompt()
	require.NoError(t, err)
	assert.Equal(t, "route carefully", prompt)

	a.SystemPrompt = "inline wins"
	prompt, err = a.Prompt()
	require.NoError(t, err)
	assert.Equal(t, "inline wins", prompt)

	_, err = AgentConfig{SystemPromptFile: filepath.Join(dir, "missing.md")}.Prompt()
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("AGENTMESH_SERVER_PORT"))
	assert.Equal(t, "workflow.max_fix_iterations", envKey("AGENTMESH_WORKFLOW_MAX_FIX_ITERATIONS"))
	assert.Equal(t, "providers.openai.api_key", envKey("AGENTMESH_PROVIDERS_OPENAI_API_KEY"))
	assert.Equal(t, "pricing.gpt-4o.input_per_million", envKey("AGENTMESH_PRICING_gpt-4o_INPUT_PER_MILLION"))
}

func TestSecret_NeverPrints(t *testing.T) {
	s := Secret("sk-very-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))
	assert.Equal(t, "sk-very-secret", s.Value())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("5")))
	assert.Equal(t, 5*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("0.5")))
	assert.Equal(t, 500*time.Millisecond, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
	assert.Equal(t, "500ms", d.String())
}

func TestSecret_GoStringHidesValue(t *testing.T) {
	s := Secret("sk-very-secret")
	assert.NotContains(t, fmt.Sprintf("%#v %v %s", s, s, s), "sk-very-secret")
	assert.True(t, s.IsSet())
	assert.False(t, Secret("").IsSet())
}

func TestLoadWithFile_ExplicitZerosKept(t *testing.T) {
	path := writeConfig(t, `
workflow:
  max_fix_iterations: 0
conversation:
  summary_token_threshold: 0
  messages_to_preserve: 0
`, 0600)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Workflow.MaxFixIterations)
	assert.Equal(t, 0, cfg.Conversation.SummaryTokenThreshold)
	assert.Equal(t, 0, cfg.Conversation.MessagesToPreserve)
}

func TestLoadWithFile_ExplicitZeroFromEnvironment(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9191\n", 0600)
	t.Setenv("AGENTMESH_WORKFLOW_MAX_FIX_ITERATIONS", "0")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Workflow.MaxFixIterations)
	assert.Equal(t, 20000, cfg.Conversation.SummaryTokenThreshold, "absent keys still get defaults")
	assert.Equal(t, 4, cfg.Conversation.MessagesToPreserve)
}
