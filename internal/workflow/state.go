package workflow

import (
	"github.com/fyrsmithlabs/agentmesh/internal/codecheck"
	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/sandbox"
)

// TokenUsage is the usage of one agent invocation.
type TokenUsage struct {
	Agent        string `json:"agent"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
}

// State is everything one turn has produced so far. The engine owns it for
// the duration of the turn; it is read-only once FinalAnswer is set.
type State struct {
	OriginalUserRequest    string
	InitialContextMessages []conversation.Message

	ContextAnalyzed bool
	// RelevantContext is nil when the history has nothing relevant.
	RelevantContext *string

	Translated        bool
	TranslatedRequest string
	TranslatedContext *string
	DetectedLanguage  string

	RouterRecipient string
	RouterRationale string

	RequirementsProduced   bool
	BusinessRequirements   *string
	ShouldEngageCoder      bool
	AdvisorOrAnalystAnswer *string

	GeneratedCode       string
	CodeWithLineNumbers string
	// CodeChecked is set once static analysis has run on the current code.
	CodeChecked            bool
	CodeIssues             []string
	IsCodeValid            bool
	CodeFixIterationCount  int
	HasBeenCheckedAfterFix bool

	// Sandbox is nil until the sandbox step has run.
	Sandbox     *sandbox.Result
	SandboxRuns int

	RuntimeCheckCount int
	RuntimeFixCount   int
	// RuntimeIssue is the latest failure analysis, nil when the last check
	// found none.
	RuntimeIssue *string

	PresenterOutput *string

	FinalAnswer string
	TokenUsage  []TokenUsage
}

// NewState starts a turn for request on top of history.
func NewState(request string, history []conversation.Message) *State {
	return &State{
		OriginalUserRequest:    request,
		InitialContextMessages: append([]conversation.Message(nil), history...),
	}
}

// Done reports whether the turn has its final answer.
func (s *State) Done() bool {
	return s.FinalAnswer != ""
}

// SandboxResult returns the program output of the last run, if it succeeded.
func (s *State) SandboxResult() (string, bool) {
	if s.Sandbox == nil {
		return "", false
	}
	return s.Sandbox.Output()
}

// SandboxError returns the failure message of the last run, if it failed.
func (s *State) SandboxError() (string, bool) {
	if s.Sandbox == nil {
		return "", false
	}
	return s.Sandbox.Message()
}

// TotalUsage sums every token usage entry.
func (s *State) TotalUsage() llm.Usage {
	var total llm.Usage
	for _, u := range s.TokenUsage {
		total = total.Add(u.usage())
	}
	return total
}

// UsageFor sums the entries of one agent.
func (s *State) UsageFor(agentName string) llm.Usage {
	var total llm.Usage
	for _, u := range s.TokenUsage {
		if u.Agent == agentName {
			total = total.Add(u.usage())
		}
	}
	return total
}

func (s *State) addUsage(agentName string, u llm.Usage) {
	s.TokenUsage = append(s.TokenUsage, TokenUsage{
		Agent:        agentName,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	})
}

// setCode replaces the program and its numbered rendering together.
func (s *State) setCode(code string) {
	s.GeneratedCode = code
	s.CodeWithLineNumbers = codecheck.NumberLines(code)
}

// compositionData is what the final composition builds the answer from:
// the presented results, the analyst's or advisor's answer, or nothing.
func (s *State) compositionData() *string {
	if s.PresenterOutput != nil {
		return s.PresenterOutput
	}
	return s.AdvisorOrAnalystAnswer
}

func (u TokenUsage) usage() llm.Usage {
	return llm.Usage{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens, TotalTokens: u.TotalTokens}
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
