package workflow

import (
	"fmt"

	"github.com/fyrsmithlabs/agentmesh/internal/agent"
	"github.com/fyrsmithlabs/agentmesh/internal/config"
)

// Limits bound the loops of a turn.
type Limits struct {
	// MaxFixIterations caps static analysis fixes. Past it the code runs
	// with its remaining issues.
	MaxFixIterations int
	// MaxRuntimeChecks caps failure detector calls after successful runs.
	// Zero disables the runtime check loop.
	MaxRuntimeChecks int
	// MaxSteps stops a turn that does not complete.
	MaxSteps int
}

// DefaultLimits returns the built-in bounds.
func DefaultLimits() Limits {
	return Limits{MaxFixIterations: 2, MaxRuntimeChecks: 0, MaxSteps: 64}
}

// LimitsFromConfig reads the workflow section.
func LimitsFromConfig(cfg config.WorkflowConfig) Limits {
	l := Limits{
		MaxFixIterations: cfg.MaxFixIterations,
		MaxRuntimeChecks: cfg.MaxRuntimeChecks,
		MaxSteps:         cfg.MaxSteps,
	}
	if l.MaxSteps <= 0 {
		l.MaxSteps = DefaultLimits().MaxSteps
	}
	return l
}

// NextStep names the step to run on s. It only reads s.
func NextStep(s *State, limits Limits) (Step, error) {
	switch {
	case s.Done():
		return StepCompleted, nil
	case !s.ContextAnalyzed:
		return StepContextAnalysis, nil
	case !s.Translated:
		return StepTranslation, nil
	case s.RouterRecipient == "":
		return StepRouting, nil
	}

	recipient, ok := agent.ParseRecipient(s.RouterRecipient)
	if !ok {
		return StepCompleted, fmt.Errorf("%w: %q", ErrUnknownRecipient, s.RouterRecipient)
	}

	switch recipient {
	case agent.RecipientBusinessRequirementsCreator:
		return nextCodeStep(s, limits), nil
	case agent.RecipientBusinessAdvisor:
		if s.AdvisorOrAnalystAnswer == nil {
			return StepBusinessAdvisor, nil
		}
		return StepFinalComposition, nil
	default:
		return StepFinalComposition, nil
	}
}

func nextCodeStep(s *State, limits Limits) Step {
	switch {
	case !s.RequirementsProduced:
		return StepBusinessRequirements
	case !s.ShouldEngageCoder:
		return StepFinalComposition
	case s.GeneratedCode == "":
		return StepCoder
	case s.SandboxRuns == 0 && !s.CodeChecked:
		return StepStaticAnalysis
	case s.SandboxRuns == 0 && !s.IsCodeValid && len(s.CodeIssues) > 0 &&
		s.CodeFixIterationCount < limits.MaxFixIterations:
		return StepCodeFixer
	case s.SandboxRuns <= s.RuntimeFixCount:
		return StepSandbox
	}

	if limits.MaxRuntimeChecks > 0 && !s.Sandbox.Failed() {
		if s.RuntimeCheckCount < s.SandboxRuns && s.RuntimeCheckCount < limits.MaxRuntimeChecks {
			return StepFailureDetection
		}
		if s.RuntimeIssue != nil && s.RuntimeFixCount < s.RuntimeCheckCount {
			return StepRuntimeFix
		}
	}

	if s.PresenterOutput == nil {
		return StepResultsPresentation
	}
	return StepFinalComposition
}
