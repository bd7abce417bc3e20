package agent

import (
	"fmt"

	"github.com/fyrsmithlabs/agentmesh/internal/codecheck"
	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// GatewaySource builds the gateway of one agent. *llm.Factory implements it.
type GatewaySource interface {
	Gateway(key, agentName string) (llm.Gateway, error)
}

var configKeys = map[string]string{
	NameContextAnalyzer:        config.AgentContextAnalyzer,
	NameTranslator:             config.AgentTranslator,
	NameRouter:                 config.AgentRouter,
	NameBusinessRequirements:   config.AgentBusinessRequirements,
	NameBusinessAdvisor:        config.AgentBusinessAdvisor,
	NameCoder:                  config.AgentCoder,
	NameCodeFixer:              config.AgentCodeFixer,
	NameResultsPresenter:       config.AgentResultsPresenter,
	NamePersonalAssistant:      config.AgentPersonalAssistant,
	NameConversationSummarizer: config.AgentConversationSummarizer,
	NameFailuresDetector:       config.AgentExecutionFailuresDetector,
}

// ConfigKey returns the configuration section of a model-backed agent.
// The static analyzer has none.
func ConfigKey(name string) (string, bool) {
	key, ok := configKeys[name]
	return key, ok
}

// Set is every agent a turn can call.
type Set struct {
	ContextAnalyzer      Agent[ContextAnalyzerInput, ContextAnalyzerOutput]
	Translator           Agent[TranslatorInput, TranslatorOutput]
	Router               Agent[RouterInput, RouterOutput]
	BusinessRequirements Agent[RequestInput, RequirementsOutput]
	BusinessAdvisor      Agent[RequestInput, AdvisorOutput]
	Coder                Agent[CoderInput, CodeOutput]
	StaticAnalyzer       Agent[StaticAnalyzerInput, StaticAnalyzerOutput]
	CodeFixer            Agent[CodeFixerInput, CodeOutput]
	ResultsPresenter     Agent[PresenterInput, TextOutput]
	PersonalAssistant    Agent[PersonalAssistantInput, TextOutput]
	FailuresDetector     Agent[FailuresDetectorInput, FailuresDetectorOutput]
	Summarizer           *ConversationSummarizer
}

// NewSet builds every agent from configuration.
func NewSet(cfg *config.Config, gateways GatewaySource, analyzer *codecheck.Analyzer, deps Deps) (*Set, error) {
	b := &setBuilder{cfg: cfg, gateways: gateways}

	set := &Set{StaticAnalyzer: NewStaticAnalyzer(analyzer)}

	if gw, prompt, ok := b.model(config.AgentContextAnalyzer, NameContextAnalyzer); ok {
		set.ContextAnalyzer = NewContextAnalyzer(gw, prompt, deps)
	}
	if gw, prompt, ok := b.model(config.AgentTranslator, NameTranslator); ok {
		set.Translator = NewTranslator(gw, prompt, deps)
	}
	if gw, prompt, ok := b.model(config.AgentRouter, NameRouter); ok {
		set.Router = NewRouter(gw, prompt, cfg.Router.AllowedRecipients, deps)
	}
	if gw, prompt, ok := b.model(config.AgentBusinessRequirements, NameBusinessRequirements); ok {
		set.BusinessRequirements = NewBusinessRequirementsCreator(gw, prompt, b.documentation(config.AgentBusinessRequirements), deps)
	}
	if gw, prompt, ok := b.model(config.AgentBusinessAdvisor, NameBusinessAdvisor); ok {
		set.BusinessAdvisor = NewBusinessAdvisor(gw, prompt, b.documentation(config.AgentBusinessAdvisor), deps)
	}
	if gw, prompt, ok := b.model(config.AgentCoder, NameCoder); ok {
		set.Coder = NewCoder(gw, prompt, b.documentation(config.AgentCoder), deps)
	}
	if gw, prompt, ok := b.model(config.AgentCodeFixer, NameCodeFixer); ok {
		set.CodeFixer = NewCodeFixer(gw, prompt, deps)
	}
	if gw, prompt, ok := b.model(config.AgentResultsPresenter, NameResultsPresenter); ok {
		set.ResultsPresenter = NewResultsPresenter(gw, prompt, deps)
	}
	if gw, prompt, ok := b.model(config.AgentPersonalAssistant, NamePersonalAssistant); ok {
		set.PersonalAssistant = NewPersonalAssistant(gw, prompt, deps)
	}
	if gw, prompt, ok := b.model(config.AgentExecutionFailuresDetector, NameFailuresDetector); ok {
		set.FailuresDetector = NewFailuresDetector(gw, prompt, deps)
	}
	if gw, prompt, ok := b.model(config.AgentConversationSummarizer, NameConversationSummarizer); ok {
		set.Summarizer = NewConversationSummarizer(gw, prompt, deps)
	}

	if b.err != nil {
		return nil, b.err
	}
	return set, nil
}

// setBuilder keeps the first error so NewSet reads as a flat list.
type setBuilder struct {
	cfg      *config.Config
	gateways GatewaySource
	err      error
}

func (b *setBuilder) model(key, name string) (llm.Gateway, string, bool) {
	if b.err != nil {
		return nil, "", false
	}
	prompt, err := resolvePrompt(b.cfg, key)
	if err != nil {
		b.err = err
		return nil, "", false
	}
	gw, err := b.gateways.Gateway(key, name)
	if err != nil {
		b.err = fmt.Errorf("failed to build %s gateway: %w", name, err)
		return nil, "", false
	}
	return gw, prompt, true
}

func (b *setBuilder) documentation(key string) string {
	if b.err != nil {
		return ""
	}
	doc, err := b.cfg.Agent(key).Documentation()
	if err != nil {
		b.err = fmt.Errorf("agent %s: %w", key, err)
	}
	return doc
}
