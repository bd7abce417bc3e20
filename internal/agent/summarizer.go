package agent

import (
	"context"

	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// SummarizerInput is the part of the history to condense.
type SummarizerInput struct {
	Messages []conversation.Message
	Language string
}

// ConversationSummarizer condenses old history into one paragraph.
type ConversationSummarizer struct {
	base
}

// NewConversationSummarizer creates the summarizer.
func NewConversationSummarizer(gateway llm.Gateway, prompt string, deps Deps) *ConversationSummarizer {
	return &ConversationSummarizer{base: newBase(NameConversationSummarizer, gateway, prompt, deps)}
}

// Execute implements Agent.
func (a *ConversationSummarizer) Execute(ctx context.Context, in SummarizerInput) (TextOutput, error) {
	messages := []llm.Message{
		a.dateMessage(),
		llm.System("Summarize in " + in.Language + " language"),
		llm.User(conversation.Serialize(in.Messages)),
	}

	text, usage, err := call(ctx, &a.base, messages, freeForm)
	if err != nil {
		return TextOutput{}, err
	}
	return TextOutput{Text: text, Usage: usage}, nil
}

// Summarize implements conversation.Summarizer.
func (a *ConversationSummarizer) Summarize(ctx context.Context, messages []conversation.Message, language string) (string, llm.Usage, error) {
	out, err := a.Execute(ctx, SummarizerInput{Messages: messages, Language: language})
	return out.Text, out.Usage, err
}
