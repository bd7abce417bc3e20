package llm

import (
	"context"
	"sync"
)

// ScriptedGateway replays canned responses in order. Tests across packages
// use it in place of a provider.
type ScriptedGateway struct {
	mu        sync.Mutex
	steps     []ScriptedStep
	calls     []ScriptedCall
	Exhausted error
}

// ScriptedStep is one canned answer: either a response or an error.
type ScriptedStep struct {
	Text  string
	Usage Usage
	Err   error
}

// ScriptedCall records what a caller sent.
type ScriptedCall struct {
	SystemPrompt string
	Messages     []Message
}

// NewScriptedGateway returns a gateway answering with steps in order.
func NewScriptedGateway(steps ...ScriptedStep) *ScriptedGateway {
	return &ScriptedGateway{steps: steps}
}

// Reply is a shorthand for a successful step.
func Reply(text string, in, out int) ScriptedStep {
	return ScriptedStep{Text: text, Usage: Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}}
}

// Fail is a shorthand for a failing step.
func Fail(err error) ScriptedStep {
	return ScriptedStep{Err: err}
}

// Generate implements Gateway.
func (g *ScriptedGateway) Generate(ctx context.Context, systemPrompt string, messages []Message) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, ScriptedCall{SystemPrompt: systemPrompt, Messages: append([]Message(nil), messages...)})
	if len(g.steps) == 0 {
		if g.Exhausted != nil {
			return nil, g.Exhausted
		}
		return nil, ErrEmptyChoices
	}
	step := g.steps[0]
	g.steps = g.steps[1:]
	if step.Err != nil {
		return nil, step.Err
	}
	return &Response{Text: step.Text, Model: "scripted", Usage: step.Usage}, nil
}

// Calls returns the recorded calls.
func (g *ScriptedGateway) Calls() []ScriptedCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ScriptedCall(nil), g.calls...)
}

// Remaining returns how many scripted steps are left.
func (g *ScriptedGateway) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.steps)
}
