// Package workflow drives one user turn through the agents.
//
// A turn is a State plus a pure function, NextStep, that looks at the state
// and names the step to run next. The Engine runs that step's handler,
// which calls one agent (or the sandbox) and merges its output back into
// the state, and repeats until NextStep returns StepCompleted.
//
// The route through the steps depends on the router's answer:
//
//	ContextAnalysis -> Translation -> Routing
//	    PersonalAssistant:            -> FinalComposition
//	    BusinessAdvisor:              -> BusinessAdvisor -> FinalComposition
//	    BusinessRequirementsCreator:  -> BusinessRequirements
//	        information:              -> FinalComposition
//	        businessRequirements:     -> Coder -> StaticAnalysis (<-> CodeFixer)
//	                                  -> Sandbox (<-> FailureDetection -> RuntimeFix)
//	                                  -> ResultsPresentation -> FinalComposition
//
// FinalComposition is the only step that sets the final answer.
package workflow
