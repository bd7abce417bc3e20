package agent

import (
	"context"

	"github.com/fyrsmithlabs/agentmesh/internal/codecheck"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// StaticAnalyzerInput is the code to check.
type StaticAnalyzerInput struct {
	Code string
}

// StaticAnalyzerOutput lists rule violations. Usage is always zero.
type StaticAnalyzerOutput struct {
	Violations []string
	Usage      llm.Usage
}

// StaticAnalyzer runs the code smell rules. It never calls a model.
type StaticAnalyzer struct {
	analyzer *codecheck.Analyzer
}

// NewStaticAnalyzer wraps a rule set.
func NewStaticAnalyzer(analyzer *codecheck.Analyzer) *StaticAnalyzer {
	if analyzer == nil {
		analyzer = codecheck.NewAnalyzer(codecheck.DefaultRules()...)
	}
	return &StaticAnalyzer{analyzer: analyzer}
}

// Execute implements Agent.
func (a *StaticAnalyzer) Execute(ctx context.Context, in StaticAnalyzerInput) (StaticAnalyzerOutput, error) {
	if err := ctx.Err(); err != nil {
		return StaticAnalyzerOutput{}, err
	}
	return StaticAnalyzerOutput{Violations: codecheck.Strings(a.analyzer.Analyze(in.Code))}, nil
}
