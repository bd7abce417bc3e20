package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/agent"
)

// handler runs one step on s and returns the outputs reported to the
// notifier.
type handler func(ctx context.Context, s *State) (map[string]string, error)

// stepDef describes one entry of the step table.
type stepDef struct {
	inputs func(s *State) map[string]string
	run    handler
}

func (e *Engine) stepTable() map[Step]stepDef {
	return map[Step]stepDef{
		StepContextAnalysis:      {inputs: contextAnalysisInputs, run: e.analyzeContext},
		StepTranslation:          {inputs: e.translationInputs, run: e.translate},
		StepRouting:              {inputs: requestInputs, run: e.route},
		StepBusinessRequirements: {inputs: requestInputs, run: e.createRequirements},
		StepCoder:                {inputs: coderInputs, run: e.writeCode},
		StepStaticAnalysis:       {inputs: codeInputs, run: e.analyzeCode},
		StepCodeFixer:            {inputs: fixInputs, run: e.fixCode},
		StepSandbox:              {inputs: sandboxInputs, run: e.runSandbox},
		StepFailureDetection:     {inputs: detectionInputs, run: e.detectFailures},
		StepRuntimeFix:           {inputs: runtimeFixInputs, run: e.fixRuntimeIssue},
		StepResultsPresentation:  {inputs: presentationInputs, run: e.presentResults},
		StepBusinessAdvisor:      {inputs: requestInputs, run: e.advise},
		StepFinalComposition:     {inputs: compositionInputs, run: e.composeAnswer},
	}
}

func contextAnalysisInputs(s *State) map[string]string {
	return map[string]string{
		"ContextMessages": "<omitted for brevity>. Total: " + strconv.Itoa(len(s.InitialContextMessages)),
		"UserLastRequest": s.OriginalUserRequest,
	}
}

func (e *Engine) analyzeContext(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.ContextAnalyzer.Execute(ctx, agent.ContextAnalyzerInput{
		History: s.InitialContextMessages,
		Request: s.OriginalUserRequest,
	})
	if err != nil {
		return nil, err
	}
	s.ContextAnalyzed = true
	s.RelevantContext = out.RelevantContext
	s.addUsage(agent.NameContextAnalyzer, out.Usage)

	return map[string]string{
		"RelevantContext": deref(s.RelevantContext, "(No relevant context found)"),
	}, nil
}

func (e *Engine) translationInputs(s *State) map[string]string {
	return map[string]string{
		"TargetLanguage": e.language,
		"UserRequest":    s.OriginalUserRequest,
		"RequestContext": deref(s.RelevantContext, ""),
	}
}

func (e *Engine) translate(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.Translator.Execute(ctx, agent.TranslatorInput{
		Request:        s.OriginalUserRequest,
		Context:        deref(s.RelevantContext, ""),
		TargetLanguage: e.language,
	})
	if err != nil {
		return nil, err
	}
	if out.TranslatedRequest == "" {
		return nil, errors.New("translator returned an empty request")
	}
	s.Translated = true
	s.TranslatedRequest = out.TranslatedRequest
	s.TranslatedContext = out.TranslatedContext
	s.DetectedLanguage = out.DetectedLanguage
	s.addUsage(agent.NameTranslator, out.Usage)

	return map[string]string{
		"TranslatedSentence":       s.TranslatedRequest,
		"TranslatedContext":        deref(s.TranslatedContext, "(No context translated)"),
		"DetectedOriginalLanguage": s.DetectedLanguage,
	}, nil
}

func requestInputs(s *State) map[string]string {
	return map[string]string{
		"UserRequest":    s.TranslatedRequest,
		"RequestContext": deref(s.TranslatedContext, ""),
	}
}

func (e *Engine) route(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.Router.Execute(ctx, agent.RouterInput{
		Request: s.TranslatedRequest,
		Context: deref(s.TranslatedContext, ""),
	})
	if err != nil {
		return nil, err
	}
	s.addUsage(agent.NameRouter, out.Usage)
	if strings.TrimSpace(out.Recipient) == "" {
		return nil, fmt.Errorf("%w: empty recipient", ErrUnknownRecipient)
	}
	s.RouterRecipient = out.Recipient
	s.RouterRationale = out.Rationale

	rationale := out.Rationale
	if rationale == "" {
		rationale = "(No rationale provided)"
	}
	return map[string]string{
		"Recipient": s.RouterRecipient,
		"Rationale": rationale,
	}, nil
}

func (e *Engine) createRequirements(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.BusinessRequirements.Execute(ctx, agent.RequestInput{
		Request: s.TranslatedRequest,
		Context: deref(s.TranslatedContext, ""),
	})
	if err != nil {
		return nil, err
	}
	if out.EngageCoder && out.Requirements == nil {
		return nil, errors.New("requirements creator engaged the coder without requirements")
	}
	s.RequirementsProduced = true
	s.ShouldEngageCoder = out.EngageCoder
	s.BusinessRequirements = out.Requirements
	s.AdvisorOrAnalystAnswer = out.Answer
	s.addUsage(agent.NameBusinessRequirements, out.Usage)

	if s.ShouldEngageCoder {
		return map[string]string{"BusinessRequirements": *s.BusinessRequirements}, nil
	}
	return map[string]string{"Information": deref(s.AdvisorOrAnalystAnswer, "")}, nil
}

func coderInputs(s *State) map[string]string {
	return map[string]string{"BusinessRequirements": deref(s.BusinessRequirements, "")}
}

func (e *Engine) writeCode(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.Coder.Execute(ctx, agent.CoderInput{Requirements: deref(s.BusinessRequirements, "")})
	if err != nil {
		return nil, err
	}
	if out.Code == "" {
		return nil, errors.New("coder returned no code")
	}
	s.setCode(out.Code)
	s.addUsage(agent.NameCoder, out.Usage)

	return map[string]string{"CodeToRun": s.GeneratedCode}, nil
}

func codeInputs(s *State) map[string]string {
	return map[string]string{"CodeToFix": s.CodeWithLineNumbers}
}

func (e *Engine) analyzeCode(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.StaticAnalyzer.Execute(ctx, agent.StaticAnalyzerInput{Code: s.GeneratedCode})
	if err != nil {
		return nil, err
	}
	s.CodeChecked = true
	s.IsCodeValid = len(out.Violations) == 0
	s.CodeIssues = nil
	if !s.IsCodeValid {
		s.CodeIssues = append([]string(nil), out.Violations...)
	}
	if s.CodeFixIterationCount > 0 {
		s.HasBeenCheckedAfterFix = true
	}
	s.addUsage(agent.NameStaticAnalyzer, out.Usage)

	return map[string]string{
		"IsCodeValid":     strconv.FormatBool(s.IsCodeValid),
		"ViolationsCount": strconv.Itoa(len(out.Violations)),
	}, nil
}

func fixInputs(s *State) map[string]string {
	return map[string]string{
		"CodeToFix":   s.CodeWithLineNumbers,
		"IssuesCount": strconv.Itoa(len(s.CodeIssues)),
	}
}

func (e *Engine) fixCode(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.CodeFixer.Execute(ctx, agent.CodeFixerInput{
		Code:   s.CodeWithLineNumbers,
		Issues: s.CodeIssues,
	})
	if err != nil {
		return nil, err
	}
	if out.Code == "" {
		return nil, errors.New("code fixer returned no code")
	}
	s.setCode(out.Code)
	s.CodeFixIterationCount++
	s.CodeChecked = false
	s.HasBeenCheckedAfterFix = false
	s.addUsage(agent.NameCodeFixer, out.Usage)

	return map[string]string{"FixedCode": s.GeneratedCode}, nil
}

func sandboxInputs(s *State) map[string]string {
	return map[string]string{"Code": s.GeneratedCode}
}

// runSandbox records an execution failure in the state. Only faults of the
// runner itself, such as cancellation, fail the step.
func (e *Engine) runSandbox(ctx context.Context, s *State) (map[string]string, error) {
	res, err := e.runner.Run(ctx, s.GeneratedCode)
	if err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}
	s.Sandbox = &res
	s.SandboxRuns++
	if s.SandboxRuns == 1 {
		FixIterations.Observe(float64(s.CodeFixIterationCount))
	}

	if msg, failed := res.Message(); failed {
		return map[string]string{"Error": msg}, nil
	}
	out, _ := res.Output()
	return map[string]string{"Result": out}, nil
}

func detectionInputs(s *State) map[string]string {
	out, _ := s.SandboxResult()
	return map[string]string{
		"CodeWithLineNumbers": s.CodeWithLineNumbers,
		"ExecutionResult":     out,
	}
}

func (e *Engine) detectFailures(ctx context.Context, s *State) (map[string]string, error) {
	out, _ := s.SandboxResult()
	res, err := e.agents.FailuresDetector.Execute(ctx, agent.FailuresDetectorInput{
		CodeWithLineNumbers: s.CodeWithLineNumbers,
		ExecutionResult:     out,
	})
	if err != nil {
		return nil, err
	}
	s.RuntimeCheckCount++
	s.RuntimeIssue = nil
	if !res.NoError {
		analysis := res.Analysis
		s.RuntimeIssue = &analysis
	}
	s.addUsage(agent.NameFailuresDetector, res.Usage)

	return map[string]string{"Analysis": res.Analysis}, nil
}

func runtimeFixInputs(s *State) map[string]string {
	return map[string]string{
		"CodeToFix":   s.CodeWithLineNumbers,
		"IssuesCount": "1",
	}
}

func (e *Engine) fixRuntimeIssue(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.CodeFixer.Execute(ctx, agent.CodeFixerInput{
		Code:   s.CodeWithLineNumbers,
		Issues: []string{deref(s.RuntimeIssue, "")},
	})
	if err != nil {
		return nil, err
	}
	if out.Code == "" {
		return nil, errors.New("code fixer returned no code")
	}
	s.setCode(out.Code)
	s.RuntimeFixCount++
	s.addUsage(agent.NameCodeFixer, out.Usage)

	return map[string]string{"FixedCode": s.GeneratedCode}, nil
}

func presentationData(s *State) string {
	if s.Sandbox == nil {
		return ""
	}
	return s.Sandbox.Text()
}

func presentationInputs(s *State) map[string]string {
	in := requestInputs(s)
	in["Data"] = presentationData(s)
	return in
}

func (e *Engine) presentResults(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.ResultsPresenter.Execute(ctx, agent.PresenterInput{
		Request: s.TranslatedRequest,
		Context: deref(s.TranslatedContext, ""),
		Data:    presentationData(s),
	})
	if err != nil {
		return nil, err
	}
	text := out.Text
	s.PresenterOutput = &text
	s.addUsage(agent.NameResultsPresenter, out.Usage)

	return map[string]string{"Content": text}, nil
}

func (e *Engine) advise(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.BusinessAdvisor.Execute(ctx, agent.RequestInput{
		Request: s.TranslatedRequest,
		Context: deref(s.TranslatedContext, ""),
	})
	if err != nil {
		return nil, err
	}
	content := out.Content
	s.AdvisorOrAnalystAnswer = &content
	s.addUsage(agent.NameBusinessAdvisor, out.Usage)

	return map[string]string{"Content": content}, nil
}

func compositionInputs(s *State) map[string]string {
	in := requestInputs(s)
	in["Data"] = deref(s.compositionData(), "(No data)")
	in["OutputLanguage"] = s.DetectedLanguage
	return in
}

func (e *Engine) composeAnswer(ctx context.Context, s *State) (map[string]string, error) {
	out, err := e.agents.PersonalAssistant.Execute(ctx, agent.PersonalAssistantInput{
		Request:        s.TranslatedRequest,
		Context:        deref(s.TranslatedContext, ""),
		Data:           s.compositionData(),
		TargetLanguage: s.DetectedLanguage,
	})
	if err != nil {
		return nil, err
	}
	if out.Text == "" {
		return nil, errors.New("personal assistant returned an empty answer")
	}
	s.FinalAnswer = out.Text
	s.addUsage(agent.NamePersonalAssistant, out.Usage)

	return map[string]string{"Response": s.FinalAnswer}, nil
}
