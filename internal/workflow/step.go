package workflow

import "fmt"

// Step is one stage of a turn.
type Step int

const (
	StepContextAnalysis Step = iota
	StepTranslation
	StepRouting
	StepBusinessRequirements
	StepCoder
	StepStaticAnalysis
	StepCodeFixer
	StepSandbox
	StepFailureDetection
	StepRuntimeFix
	StepResultsPresentation
	StepBusinessAdvisor
	StepFinalComposition
	StepCompleted
)

var stepNames = [...]string{
	StepContextAnalysis:      "ContextAnalysis",
	StepTranslation:          "Translation",
	StepRouting:              "Routing",
	StepBusinessRequirements: "BusinessRequirements",
	StepCoder:                "Coder",
	StepStaticAnalysis:       "StaticAnalysis",
	StepCodeFixer:            "CodeFixer",
	StepSandbox:              "Sandbox",
	StepFailureDetection:     "FailureDetection",
	StepRuntimeFix:           "RuntimeFix",
	StepResultsPresentation:  "ResultsPresentation",
	StepBusinessAdvisor:      "BusinessAdvisor",
	StepFinalComposition:     "FinalComposition",
	StepCompleted:            "Completed",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// DisplayName is the name progress notifications use for the step about to
// run on s. Repeated steps carry their iteration number.
func (s Step) DisplayName(st *State) string {
	switch s {
	case StepContextAnalysis:
		return "Context Analyzer Agent"
	case StepTranslation:
		return "Translator Agent"
	case StepRouting:
		return "Router Agent"
	case StepBusinessRequirements:
		return "Business Requirements Creator Agent"
	case StepCoder:
		return "Coder Agent"
	case StepStaticAnalysis:
		return "Code Static Analyzer Agent"
	case StepCodeFixer:
		return fmt.Sprintf("Code Fixer Agent (Iteration %d)", st.CodeFixIterationCount+1)
	case StepSandbox:
		if st.SandboxRuns > 0 {
			return "Code Sandbox Executor (Re-execution)"
		}
		return "Code Sandbox Executor"
	case StepFailureDetection:
		return fmt.Sprintf("Code Execution Failures Detector Agent (Iteration %d)", st.RuntimeCheckCount+1)
	case StepRuntimeFix:
		return fmt.Sprintf("Code Fixer Agent for Runtime Errors (Iteration %d)", st.RuntimeFixCount+1)
	case StepResultsPresentation:
		return "Results Presenter Agent"
	case StepBusinessAdvisor:
		return "Business Advisor Agent"
	case StepFinalComposition:
		return "Personal Assistant Agent"
	default:
		return s.String()
	}
}
