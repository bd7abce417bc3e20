// Package main implements the agentmesh CLI: an interactive chat, one-shot
// questions and the HTTP API server on top of the multi-agent workflow.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

var (
	// configPath overrides ~/.config/agentmesh/config.yaml.
	configPath string
	// quiet disables console progress output.
	quiet bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agentmesh",
		Short: "Multi-agent assistant that answers, advises and writes code",
		Long: `agentmesh routes each request through a team of LLM agents: a context
analyzer, a translator and a router pick the branch, business agents and a
coder produce the content, and a personal assistant writes the answer in
the user's language.`,
		Version:       version + " (" + gitCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/agentmesh/config.yaml)")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "hide workflow progress")

	root.AddCommand(newChatCmd())
	root.AddCommand(newAskCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	return root
}
