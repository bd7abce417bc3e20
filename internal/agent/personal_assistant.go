package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// PersonalAssistantInput is everything the final answer is composed from.
type PersonalAssistantInput struct {
	Request        string
	Context        string
	Data           *string
	TargetLanguage string
}

type personalAssistantPayload struct {
	Sentence       string  `json:"sentence"`
	Context        string  `json:"context"`
	Data           *string `json:"data"`
	TargetLanguage string  `json:"targetLanguage"`
}

// PersonalAssistant writes the answer the user sees, in the user's language.
type PersonalAssistant struct {
	base
}

// NewPersonalAssistant creates the personal assistant.
func NewPersonalAssistant(gateway llm.Gateway, prompt string, deps Deps) *PersonalAssistant {
	return &PersonalAssistant{base: newBase(NamePersonalAssistant, gateway, prompt, deps)}
}

// Execute implements Agent.
func (a *PersonalAssistant) Execute(ctx context.Context, in PersonalAssistantInput) (TextOutput, error) {
	payload, err := json.Marshal(personalAssistantPayload{
		Sentence:       in.Request,
		Context:        in.Context,
		Data:           in.Data,
		TargetLanguage: in.TargetLanguage,
	})
	if err != nil {
		return TextOutput{}, fmt.Errorf("failed to encode personal assistant input: %w", err)
	}

	messages := []llm.Message{
		a.dateMessage(),
		llm.User(string(payload)),
	}

	text, usage, err := call(ctx, &a.base, messages, freeForm)
	if err != nil {
		return TextOutput{}, err
	}
	return TextOutput{Text: text, Usage: usage}, nil
}
