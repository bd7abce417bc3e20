package agent

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// CoderInput is the requirements document.
type CoderInput struct {
	Requirements string
}

// CodeOutput is a Go program.
type CodeOutput struct {
	Code  string
	Usage llm.Usage
}

// CodeFixerInput is the code to repair and what is wrong with it.
type CodeFixerInput struct {
	Code   string
	Issues []string
}

func parseGoBlock(agent string) func(string) (string, error) {
	return func(text string) (string, error) {
		_, code, ok := fencedBlock(text, "go", "golang")
		if !ok {
			return "", malformed(agent, text, "no go code block")
		}
		if code == "" {
			return "", malformed(agent, text, "go code block is empty")
		}
		return code, nil
	}
}

// Coder writes a program implementing the requirements.
type Coder struct {
	base
	documentation string
}

// NewCoder creates the coder.
func NewCoder(gateway llm.Gateway, prompt, documentation string, deps Deps) *Coder {
	return &Coder{base: newBase(NameCoder, gateway, prompt, deps), documentation: documentation}
}

// Execute implements Agent.
func (a *Coder) Execute(ctx context.Context, in CoderInput) (CodeOutput, error) {
	messages := []llm.Message{a.dateMessage()}
	if a.documentation != "" {
		messages = append(messages, llm.System("API Reference:\n"+a.documentation))
	}
	messages = append(messages, llm.User(in.Requirements))

	code, usage, err := call(ctx, &a.base, messages, parseGoBlock(a.name))
	if err != nil {
		return CodeOutput{}, err
	}
	return CodeOutput{Code: code, Usage: usage}, nil
}

// CodeFixer rewrites a program so the reported issues go away.
type CodeFixer struct {
	base
}

// NewCodeFixer creates the fixer.
func NewCodeFixer(gateway llm.Gateway, prompt string, deps Deps) *CodeFixer {
	return &CodeFixer{base: newBase(NameCodeFixer, gateway, prompt, deps)}
}

// Execute implements Agent.
func (a *CodeFixer) Execute(ctx context.Context, in CodeFixerInput) (CodeOutput, error) {
	messages := []llm.Message{
		llm.System("The following issues were detected in the code:\n- " + strings.Join(in.Issues, "\n- ")),
		llm.User("Fix the following code:\n\n" + in.Code),
	}

	code, usage, err := call(ctx, &a.base, messages, parseGoBlock(a.name))
	if err != nil {
		return CodeOutput{}, err
	}
	return CodeOutput{Code: code, Usage: usage}, nil
}
