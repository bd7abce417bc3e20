package main

import (
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var showCost bool
	cmd := &cobra.Command{
		Use:   "ask <request>",
		Short: "Answer a single request",
		Long: `Run one turn on a fresh conversation and print the answer.

Examples:
  # Ask directly
  agentmesh ask "What is the VAT on 120 EUR?"

  # Read the request from stdin
  echo "Sum the numbers from 1 to 100" | agentmesh ask -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := args[0]
			if request == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				request = strings.TrimSpace(string(data))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Progress goes to stderr so stdout carries only the answer.
			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			svc := a.services.Assistant()
			ans, err := svc.Ask(ctx, svc.NewConversation(), request)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := io.WriteString(out, ans.Text+"\n"); err != nil {
				return err
			}
			if showCost {
				_, err = io.WriteString(cmd.ErrOrStderr(), renderReport(ans.Report)+"\n")
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&showCost, "cost", false, "print the token cost table to stderr")
	return cmd
}
