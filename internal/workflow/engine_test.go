package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/agentmesh/internal/agent"
	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/resilience"
	"github.com/fyrsmithlabs/agentmesh/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func configWorkflow(fixes, checks, steps int) config.WorkflowConfig {
	return config.WorkflowConfig{MaxFixIterations: fixes, MaxRuntimeChecks: checks, MaxSteps: steps}
}

func TestEngine_DirectAnswer(t *testing.T) {
	h := newHarness("PersonalAssistant")
	s, err := h.engine(t, Options{}).Run(context.Background(), "cześć", nil)
	require.NoError(t, err)

	assert.Equal(t, "final answer", s.FinalAnswer)
	assert.Nil(t, s.RelevantContext)
	assert.Equal(t, []string{
		agent.NameContextAnalyzer, agent.NameTranslator, agent.NameRouter, agent.NamePersonalAssistant,
	}, h.calls)
	assert.Nil(t, h.assistantIn.Data)
	assert.Equal(t, "Polish", h.assistantIn.TargetLanguage)
	assert.Equal(t, "translated: cześć", h.assistantIn.Request)
	assert.Zero(t, h.count(agent.NameCoder))
	assert.Zero(t, h.count("Sandbox"))
	assert.Len(t, s.TokenUsage, 4)
	assert.Equal(t, 20, s.TotalUsage().TotalTokens)
}

func TestEngine_CodePathHappy(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	s, err := h.engine(t, Options{}).Run(context.Background(), "print 42", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		agent.NameContextAnalyzer, agent.NameTranslator, agent.NameRouter,
		agent.NameBusinessRequirements, agent.NameCoder, agent.NameStaticAnalyzer,
		"Sandbox", agent.NameResultsPresenter, agent.NamePersonalAssistant,
	}, h.calls)
	assert.Equal(t, 0, s.CodeFixIterationCount)
	assert.True(t, s.IsCodeValid)
	assert.Equal(t, "42\n", h.presenterIn.Data)
	require.NotNil(t, h.assistantIn.Data)
	assert.Equal(t, "presented: 42\n", *h.assistantIn.Data)

	out, ok := s.SandboxResult()
	assert.True(t, ok)
	assert.Equal(t, "42\n", out)
	_, failed := s.SandboxError()
	assert.False(t, failed)

	// The static analyzer contributes a zero-token entry; the sandbox none.
	assert.Len(t, s.TokenUsage, 8)
	assert.Equal(t, llm.Usage{}, s.UsageFor(agent.NameStaticAnalyzer))
}

func TestEngine_OneFixCycle(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.code = smellCode
	s, err := h.engine(t, Options{}).Run(context.Background(), "print it", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, s.CodeFixIterationCount)
	assert.Equal(t, 2, h.count(agent.NameStaticAnalyzer))
	assert.Equal(t, 1, h.count(agent.NameCodeFixer))
	assert.Equal(t, 1, h.count("Sandbox"))
	assert.True(t, s.IsCodeValid)
	assert.True(t, s.HasBeenCheckedAfterFix)
	assert.Equal(t, cleanCode, s.GeneratedCode)

	require.Len(t, h.fixerIn, 1)
	assert.Equal(t, []string{"Line [6]: Detected code smell - the 'result' identifier must be dereferenced only once. Not: 'result.result'"}, h.fixerIn[0].Issues)
	assert.Contains(t, h.fixerIn[0].Code, "[6] \tfmt.Println(res.Result.Result)")
}

func TestEngine_FixLoopIsBounded(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.code = smellCode
	h.fixes = []string{smellCode, smellCode, smellCode}
	s, err := h.engine(t, Options{}).Run(context.Background(), "print it", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, s.CodeFixIterationCount)
	assert.Equal(t, 3, h.count(agent.NameStaticAnalyzer))
	assert.Equal(t, 1, h.count("Sandbox"), "runs once with remaining issues")
	assert.False(t, s.IsCodeValid)
	assert.NotEmpty(t, s.CodeIssues)
	assert.Equal(t, "final answer", s.FinalAnswer)
}

func TestEngine_FixBudgetFromLimits(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.code = smellCode
	h.fixes = []string{smellCode, smellCode, smellCode, smellCode}
	s, err := h.engine(t, Options{Limits: LimitsFromConfig(configWorkflow(3, 0, 0))}).Run(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, s.CodeFixIterationCount)
	assert.Equal(t, 1, h.count("Sandbox"))
}

func TestEngine_SandboxFailureIsData(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.runs = []sandbox.Result{sandbox.ExecutionFailed("panic: index out of range")}
	s, err := h.engine(t, Options{}).Run(context.Background(), "x", nil)
	require.NoError(t, err)

	msg, failed := s.SandboxError()
	assert.True(t, failed)
	assert.Equal(t, "panic: index out of range", msg)
	_, ok := s.SandboxResult()
	assert.False(t, ok, "result and error are exclusive")
	assert.Equal(t, "panic: index out of range", h.presenterIn.Data)
	assert.Equal(t, "final answer", s.FinalAnswer)
}

func TestEngine_SandboxFaultAbortsTurn(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.runErr = context.DeadlineExceeded
	s, err := h.engine(t, Options{}).Run(context.Background(), "x", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, s.FinalAnswer)
	assert.Nil(t, s.Sandbox)
	assert.Zero(t, h.count(agent.NamePersonalAssistant))
}

func TestEngine_UnknownRecipientIsFatal(t *testing.T) {
	h := newHarness("Accountant")
	n := &recordingNotifier{}
	s, err := h.engine(t, Options{Notifier: n}).Run(context.Background(), "x", nil)

	require.ErrorIs(t, err, ErrUnknownRecipient)
	assert.Empty(t, s.FinalAnswer)
	assert.Zero(t, h.count(agent.NamePersonalAssistant))
	assert.Equal(t, "workflow:end", n.events[len(n.events)-1])
}

func TestEngine_EmptyRecipientIsFatal(t *testing.T) {
	h := newHarness("  ")
	_, err := h.engine(t, Options{}).Run(context.Background(), "x", nil)
	require.ErrorIs(t, err, ErrUnknownRecipient)
}

func TestEngine_AnalystAnswersDirectly(t *testing.T) {
	h := newHarness("BusinessAnalyst")
	answer := "We cannot see invoices."
	h.requirements = agent.RequirementsOutput{Answer: &answer}
	s, err := h.engine(t, Options{}).Run(context.Background(), "x", nil)
	require.NoError(t, err)

	assert.False(t, s.ShouldEngageCoder)
	assert.Zero(t, h.count(agent.NameCoder))
	require.NotNil(t, h.assistantIn.Data)
	assert.Equal(t, answer, *h.assistantIn.Data)
}

func TestEngine_RequirementsWithoutTextFails(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.requirements = agent.RequirementsOutput{EngageCoder: true}
	_, err := h.engine(t, Options{}).Run(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step BusinessRequirements")
}

func TestEngine_Advisor(t *testing.T) {
	h := newHarness("BusinessAdvisor")
	s, err := h.engine(t, Options{}).Run(context.Background(), "how do refunds work?", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, h.count(agent.NameBusinessAdvisor))
	assert.Zero(t, h.count(agent.NameCoder))
	require.NotNil(t, h.assistantIn.Data)
	assert.Equal(t, "Refunds take 5 days.", *h.assistantIn.Data)
	assert.Equal(t, "final answer", s.FinalAnswer)
}

func TestEngine_RuntimeFailureLoop(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.runs = []sandbox.Result{sandbox.Ok("error: 404"), sandbox.Ok("42")}
	h.detections = []string{"Line 6 prints an HTTP error", agent.NoError}
	h.fixes = []string{cleanCode + "\n"}

	s, err := h.engine(t, Options{Limits: Limits{MaxFixIterations: 2, MaxRuntimeChecks: 2}}).
		Run(context.Background(), "x", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		agent.NameContextAnalyzer, agent.NameTranslator, agent.NameRouter,
		agent.NameBusinessRequirements, agent.NameCoder, agent.NameStaticAnalyzer,
		"Sandbox", agent.NameFailuresDetector, agent.NameCodeFixer,
		"Sandbox", agent.NameFailuresDetector,
		agent.NameResultsPresenter, agent.NamePersonalAssistant,
	}, h.calls)
	assert.Equal(t, 2, s.SandboxRuns)
	assert.Equal(t, 1, s.RuntimeFixCount)
	assert.Nil(t, s.RuntimeIssue)
	assert.Equal(t, 0, s.CodeFixIterationCount, "runtime fixes do not spend the static budget")
	require.Len(t, h.fixerIn, 1)
	assert.Equal(t, []string{"Line 6 prints an HTTP error"}, h.fixerIn[0].Issues)
	assert.Equal(t, "42", h.presenterIn.Data)
}

func TestEngine_RuntimeLoopIsBounded(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.detections = []string{"bad", "still bad", "worse"}

	s, err := h.engine(t, Options{Limits: Limits{MaxFixIterations: 2, MaxRuntimeChecks: 2}}).
		Run(context.Background(), "x", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, h.count(agent.NameFailuresDetector))
	assert.Equal(t, 2, h.count(agent.NameCodeFixer))
	assert.Equal(t, 3, h.count("Sandbox"))
	assert.Equal(t, 1, h.count(agent.NameResultsPresenter))
	assert.NotEmpty(t, s.FinalAnswer)
}

func TestEngine_FailedRerunEndsRuntimeLoop(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.runs = []sandbox.Result{sandbox.Ok("error"), sandbox.ExecutionFailed("panic")}
	h.detections = []string{"bad"}

	_, err := h.engine(t, Options{Limits: Limits{MaxFixIterations: 2, MaxRuntimeChecks: 2}}).
		Run(context.Background(), "x", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, h.count(agent.NameFailuresDetector))
	assert.Equal(t, 2, h.count("Sandbox"))
	assert.Equal(t, "panic", h.presenterIn.Data)
}

func TestEngine_RuntimeLoopDisabledByDefault(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	set := h.set()
	set.FailuresDetector = nil

	e, err := NewEngine(set, h.runner(), Options{})
	require.NoError(t, err)
	_, err = e.Run(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Zero(t, h.count(agent.NameFailuresDetector))
}

func TestEngine_AgentErrorAbortsTurn(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	set := h.set()
	set.Coder = agent.Func[agent.CoderInput, agent.CodeOutput](
		func(ctx context.Context, in agent.CoderInput) (agent.CodeOutput, error) {
			return agent.CodeOutput{}, &agent.MalformedResponseError{Agent: agent.NameCoder, Raw: "prose", Reason: "no go code block"}
		})
	e, err := NewEngine(set, h.runner(), Options{})
	require.NoError(t, err)

	s, err := e.Run(context.Background(), "x", nil)
	var malformed *agent.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "prose", malformed.Raw)
	assert.Contains(t, err.Error(), "step Coder")
	assert.Empty(t, s.FinalAnswer)
	assert.Zero(t, h.count("Sandbox"))
}

func TestEngine_CancellationStopsBetweenSteps(t *testing.T) {
	h := newHarness("PersonalAssistant")
	ctx, cancel := context.WithCancel(context.Background())
	set := h.set()
	translate := set.Translator
	set.Translator = agent.Func[agent.TranslatorInput, agent.TranslatorOutput](
		func(c context.Context, in agent.TranslatorInput) (agent.TranslatorOutput, error) {
			out, err := translate.Execute(c, in)
			cancel()
			return out, err
		})
	e, err := NewEngine(set, h.runner(), Options{})
	require.NoError(t, err)

	_, err = e.Run(ctx, "x", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.count(agent.NameRouter))
}

func TestEngine_StepLimit(t *testing.T) {
	h := newHarness("PersonalAssistant")
	e := h.engine(t, Options{Limits: Limits{MaxFixIterations: 2, MaxSteps: 5}})
	def := e.steps[StepRouting]
	def.run = func(ctx context.Context, s *State) (map[string]string, error) { return nil, nil }
	e.steps[StepRouting] = def

	_, err := e.Run(context.Background(), "x", nil)
	require.ErrorIs(t, err, ErrStepLimit)
}

func TestEngine_Notifications(t *testing.T) {
	h := newHarness("BusinessRequirementsCreator")
	h.code = smellCode
	n := &recordingNotifier{}
	_, err := h.engine(t, Options{Notifier: n}).Run(context.Background(), "x", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"workflow:start",
		"start:Context Analyzer Agent", "end:Context Analyzer Agent",
		"start:Translator Agent", "end:Translator Agent",
		"start:Router Agent", "end:Router Agent",
		"start:Business Requirements Creator Agent", "end:Business Requirements Creator Agent",
		"start:Coder Agent", "end:Coder Agent",
		"start:Code Static Analyzer Agent", "end:Code Static Analyzer Agent",
		"start:Code Fixer Agent (Iteration 1)", "end:Code Fixer Agent (Iteration 1)",
		"start:Code Static Analyzer Agent", "end:Code Static Analyzer Agent",
		"start:Code Sandbox Executor", "end:Code Sandbox Executor",
		"start:Results Presenter Agent", "end:Results Presenter Agent",
		"start:Personal Assistant Agent", "end:Personal Assistant Agent",
		"workflow:end",
	}, n.events)
	assert.Equal(t, "(No relevant context found)", n.outputs[0]["RelevantContext"])
	assert.Equal(t, "(No context translated)", n.outputs[1]["TranslatedContext"])
	assert.Equal(t, "false", n.outputs[5]["IsCodeValid"])
	assert.Equal(t, "1", n.outputs[5]["ViolationsCount"])
}

func TestEngine_LogsTurnOutcome(t *testing.T) {
	tl := logging.NewTestLogger()
	h := newHarness("PersonalAssistant")
	_, err := h.engine(t, Options{Logger: tl.Logger}).Run(context.Background(), "x", nil)
	require.NoError(t, err)
	tl.AssertLogged(t, zapcore.InfoLevel, "turn completed")
	tl.AssertField(t, "turn completed", "branch", "PersonalAssistant")
}

func TestEngine_PassesHistoryAndContext(t *testing.T) {
	h := newHarness("PersonalAssistant")
	h.relevantContext = strPtr("earlier: sales were 10")
	history := []conversation.Message{{Role: conversation.RoleUser, Text: "sales?"}}

	s, err := h.engine(t, Options{}).Run(context.Background(), "and now?", history)
	require.NoError(t, err)
	assert.Equal(t, history, s.InitialContextMessages)
	require.NotNil(t, s.RelevantContext)
	assert.Equal(t, "earlier: sales were 10", *s.RelevantContext)
}

func TestNewEngine_Validation(t *testing.T) {
	h := newHarness("PersonalAssistant")

	_, err := NewEngine(nil, h.runner(), Options{})
	assert.Error(t, err)

	_, err = NewEngine(h.set(), nil, Options{})
	assert.Error(t, err)

	set := h.set()
	set.Coder = nil
	set.FailuresDetector = nil
	_, err = NewEngine(set, h.runner(), Options{Limits: Limits{MaxRuntimeChecks: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), agent.NameCoder)
	assert.Contains(t, err.Error(), agent.NameFailuresDetector)
}

// Real agents on scripted gateways, retry policy included.
func TestEngine_ScriptedAgents(t *testing.T) {
	deps := agent.Deps{Policy: resilience.New(2, 0, agent.Recoverable)}
	gw := func(steps ...llm.ScriptedStep) *llm.ScriptedGateway { return llm.NewScriptedGateway(steps...) }

	coderGW := gw(
		llm.Reply("I would write it like this.", 50, 10),
		llm.Reply("```go\n"+cleanCode+"\n```", 60, 40),
	)
	set := &agent.Set{
		ContextAnalyzer: agent.NewContextAnalyzer(gw(llm.Reply(agent.NoRelevantContext, 100, 5)), "", deps),
		Translator: agent.NewTranslator(gw(llm.Reply(
			"<DETECTED_LANGUAGE>German</DETECTED_LANGUAGE><TRANSLATED_REQUEST>print the answer</TRANSLATED_REQUEST><TRANSLATED_CONTEXT>NO_CONTEXT</TRANSLATED_CONTEXT>",
			20, 10)), "", deps),
		Router:               agent.NewRouter(gw(llm.Reply(`{"recipient":"BusinessRequirementsCreator"}`, 30, 5)), "", nil, deps),
		BusinessRequirements: agent.NewBusinessRequirementsCreator(gw(llm.Reply("```businessRequirements\n- print 42\n```", 40, 20)), "", "", deps),
		BusinessAdvisor:      agent.NewBusinessAdvisor(gw(), "", "", deps),
		Coder:                agent.NewCoder(coderGW, "", "", deps),
		StaticAnalyzer:       agent.NewStaticAnalyzer(nil),
		CodeFixer:            agent.NewCodeFixer(gw(), "", deps),
		ResultsPresenter:     agent.NewResultsPresenter(gw(llm.Reply("The answer is 42.", 70, 8)), "", deps),
		PersonalAssistant:    agent.NewPersonalAssistant(gw(llm.Reply("Die Antwort ist 42.", 80, 9)), "", deps),
	}
	runner := sandbox.RunnerFunc(func(ctx context.Context, code string) (sandbox.Result, error) {
		if code != cleanCode {
			return sandbox.Result{}, errors.New("unexpected code")
		}
		return sandbox.Ok("42\n"), nil
	})

	e, err := NewEngine(set, runner, Options{})
	require.NoError(t, err)
	s, err := e.Run(context.Background(), "Drucke die Antwort", nil)
	require.NoError(t, err)

	assert.Equal(t, "Die Antwort ist 42.", s.FinalAnswer)
	assert.Equal(t, "German", s.DetectedLanguage)
	assert.Nil(t, s.TranslatedContext)
	assert.Len(t, coderGW.Calls(), 2)
	assert.Equal(t, llm.Usage{InputTokens: 60, OutputTokens: 40, TotalTokens: 100}, s.UsageFor(agent.NameCoder),
		"only the accepted attempt is counted")
	assert.Equal(t, 100, s.UsageFor(agent.NameContextAnalyzer).InputTokens)
}
