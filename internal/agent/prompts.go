package agent

import (
	"embed"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
)

//go:embed prompts/*.md
var promptFS embed.FS

// DefaultPrompt returns the built-in system prompt of the agent stored
// under key in the config.
func DefaultPrompt(key string) (string, error) {
	data, err := promptFS.ReadFile("prompts/" + key + ".md")
	if err != nil {
		return "", fmt.Errorf("no built-in prompt for agent %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// resolvePrompt prefers the configured prompt over the built-in one.
func resolvePrompt(cfg *config.Config, key string) (string, error) {
	prompt, err := cfg.Agent(key).Prompt()
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", key, err)
	}
	if prompt != "" {
		return prompt, nil
	}
	return DefaultPrompt(key)
}
