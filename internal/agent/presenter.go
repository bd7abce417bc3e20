package agent

import (
	"context"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// PresenterInput is the program's output or failure plus the request it
// was written for.
type PresenterInput struct {
	Request string
	Context string
	Data    string
}

// TextOutput is a free-form answer.
type TextOutput struct {
	Text  string
	Usage llm.Usage
}

// ResultsPresenter turns raw execution output into an answer to the request.
type ResultsPresenter struct {
	base
}

// NewResultsPresenter creates the presenter.
func NewResultsPresenter(gateway llm.Gateway, prompt string, deps Deps) *ResultsPresenter {
	return &ResultsPresenter{base: newBase(NameResultsPresenter, gateway, prompt, deps)}
}

// Execute implements Agent.
func (a *ResultsPresenter) Execute(ctx context.Context, in PresenterInput) (TextOutput, error) {
	messages := []llm.Message{
		a.dateMessage(),
		llm.User(NewRequest(in.Context, in.Request).With("data", in.Data).String()),
	}

	text, usage, err := call(ctx, &a.base, messages, freeForm)
	if err != nil {
		return TextOutput{}, err
	}
	return TextOutput{Text: text, Usage: usage}, nil
}
