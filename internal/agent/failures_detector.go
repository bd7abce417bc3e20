package agent

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// NoError is the detector's answer for output that shows no failure.
const NoError = "NO_ERROR"

// FailuresDetectorInput is a program and what it printed.
type FailuresDetectorInput struct {
	CodeWithLineNumbers string
	ExecutionResult     string
}

// FailuresDetectorOutput is the detector's analysis. NoError is set when the
// output looks correct.
type FailuresDetectorOutput struct {
	Analysis string
	NoError  bool
	Usage    llm.Usage
}

// FailuresDetector inspects the output of a successful run for logical
// failures the program reported instead of crashing.
type FailuresDetector struct {
	base
}

// NewFailuresDetector creates the detector.
func NewFailuresDetector(gateway llm.Gateway, prompt string, deps Deps) *FailuresDetector {
	return &FailuresDetector{base: newBase(NameFailuresDetector, gateway, prompt, deps)}
}

// Execute implements Agent.
func (a *FailuresDetector) Execute(ctx context.Context, in FailuresDetectorInput) (FailuresDetectorOutput, error) {
	messages := []llm.Message{
		llm.User("Source code with line numbers:\n\n" + in.CodeWithLineNumbers + "\n\nExecution result:\n\n" + in.ExecutionResult),
	}

	analysis, usage, err := call(ctx, &a.base, messages, freeForm)
	if err != nil {
		return FailuresDetectorOutput{}, err
	}
	return FailuresDetectorOutput{
		Analysis: analysis,
		NoError:  strings.EqualFold(strings.Trim(analysis, " .`\"'"), NoError),
		Usage:    usage,
	}, nil
}
