package agent

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// NoRelevantContext is the analyzer's answer when the history does not bear
// on the request.
const NoRelevantContext = "NO RELEVANT CONTEXT FOUND"

// ContextAnalyzerInput is the history and the newest request.
type ContextAnalyzerInput struct {
	History []conversation.Message
	Request string
}

// ContextAnalyzerOutput holds the history relevant to the request, nil if
// there is none.
type ContextAnalyzerOutput struct {
	RelevantContext *string
	Usage           llm.Usage
}

// ContextAnalyzer extracts the part of the history the new request depends on.
type ContextAnalyzer struct {
	base
}

// NewContextAnalyzer creates the context analyzer.
func NewContextAnalyzer(gateway llm.Gateway, prompt string, deps Deps) *ContextAnalyzer {
	return &ContextAnalyzer{base: newBase(NameContextAnalyzer, gateway, prompt, deps)}
}

// Execute implements Agent.
func (a *ContextAnalyzer) Execute(ctx context.Context, in ContextAnalyzerInput) (ContextAnalyzerOutput, error) {
	messages := []llm.Message{
		a.dateMessage(),
		llm.User(conversation.SerializeWithRequest(in.History, in.Request)),
	}

	relevant, usage, err := call(ctx, &a.base, messages, func(text string) (*string, error) {
		if strings.EqualFold(text, NoRelevantContext) {
			return nil, nil
		}
		return &text, nil
	})
	if err != nil {
		return ContextAnalyzerOutput{}, err
	}
	return ContextAnalyzerOutput{RelevantContext: relevant, Usage: usage}, nil
}
