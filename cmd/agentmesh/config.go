package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agentmesh/internal/agent"
	"github.com/fyrsmithlabs/agentmesh/internal/codecheck"
	"github.com/fyrsmithlabs/agentmesh/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Long: `Load the configuration file and environment overrides, validate them,
resolve every agent prompt and compile the static analysis rules.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithFile(configPath)
			if err != nil {
				return err
			}
			if err := checkConfig(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "configuration is valid")
			for _, line := range describeAgents(cfg) {
				fmt.Fprintln(out, "  "+line)
			}
			return nil
		},
	})
	return cmd
}

// checkConfig goes beyond Validate: prompt files must be readable and
// analysis rules must compile.
func checkConfig(cfg *config.Config) error {
	for _, key := range agentKeys() {
		a := cfg.Agent(key)
		if _, err := a.Prompt(); err != nil {
			return fmt.Errorf("agents.%s: %w", key, err)
		}
		if _, err := a.Documentation(); err != nil {
			return fmt.Errorf("agents.%s: %w", key, err)
		}
		if _, err := agent.DefaultPrompt(key); err != nil {
			return fmt.Errorf("agents.%s: %w", key, err)
		}
	}
	if _, err := codecheck.FromConfig(cfg.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

func describeAgents(cfg *config.Config) []string {
	keys := agentKeys()
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		a := cfg.Agent(key)
		source := "built-in prompt"
		if p, _ := a.Prompt(); p != "" {
			source = "custom prompt"
		}
		lines = append(lines, fmt.Sprintf("%-30s %s/%s (%s)", key, a.LLM.Provider, a.LLM.Model, source))
	}
	return lines
}

func agentKeys() []string {
	keys := []string{
		config.AgentContextAnalyzer,
		config.AgentTranslator,
		config.AgentRouter,
		config.AgentBusinessRequirements,
		config.AgentBusinessAdvisor,
		config.AgentCoder,
		config.AgentCodeFixer,
		config.AgentResultsPresenter,
		config.AgentPersonalAssistant,
		config.AgentConversationSummarizer,
		config.AgentExecutionFailuresDetector,
	}
	sort.Strings(keys)
	return keys
}
