package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agentmesh/internal/assistant"
)

// asker is the part of the assistant the REPL needs.
type asker interface {
	Ask(ctx context.Context, conversationID, text string) (*assistant.Answer, error)
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation in the terminal.

Every line is one request. Workflow progress and a token cost table are
printed after each answer. Type /exit (or exit) to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			svc := a.services.Assistant()
			return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), svc, svc.NewConversation())
		},
	}
}

// chatLoop reads requests until EOF, /exit or cancellation. A failed turn
// is reported and the conversation continues.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, svc asker, conversationID string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprintln(out, "Enter your question or type /exit:")
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			fmt.Fprintln(out, "Please enter a valid question.")
			continue
		case strings.EqualFold(line, "/exit"), strings.EqualFold(line, "exit"):
			return nil
		}

		ans, err := svc.Ask(ctx, conversationID, line)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(out, errorStyle.Render("Turn failed: "+err.Error()))
			continue
		}
		renderAnswer(out, ans)
	}
}
