package assistant

import (
	"github.com/fyrsmithlabs/agentmesh/internal/agent"
	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/workflow"
)

// AgentUsage is the usage of one agent across a turn.
type AgentUsage struct {
	Agent        string  `json:"agent"`
	Model        string  `json:"model,omitempty"`
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
	// Priced is false when the agent's model has no pricing entry.
	Priced bool `json:"priced"`
}

// Report aggregates a turn's token usage per agent, in order of first use.
type Report struct {
	Agents []AgentUsage `json:"agents"`
	Total  llm.Usage    `json:"total"`
	Cost   float64      `json:"cost"`
}

// NewReport prices entries. models maps agent names to model names.
func NewReport(entries []workflow.TokenUsage, models map[string]string, prices llm.PriceTable) Report {
	var r Report
	index := make(map[string]int)

	for _, e := range entries {
		i, ok := index[e.Agent]
		if !ok {
			i = len(r.Agents)
			index[e.Agent] = i
			r.Agents = append(r.Agents, AgentUsage{Agent: e.Agent, Model: models[e.Agent]})
		}
		a := &r.Agents[i]
		a.Calls++
		a.InputTokens += e.InputTokens
		a.OutputTokens += e.OutputTokens
		a.TotalTokens += e.TotalTokens
	}

	for i := range r.Agents {
		a := &r.Agents[i]
		usage := llm.Usage{InputTokens: a.InputTokens, OutputTokens: a.OutputTokens, TotalTokens: a.TotalTokens}
		r.Total = r.Total.Add(usage)
		if a.Model == "" {
			// Agents without a model cost nothing.
			a.Priced = true
			continue
		}
		a.Cost, a.Priced = prices.Cost(a.Model, usage)
		r.Cost += a.Cost
	}
	return r
}

// ModelsFromConfig maps every model-backed agent name to its configured model.
func ModelsFromConfig(cfg *config.Config) map[string]string {
	names := []string{
		agent.NameContextAnalyzer,
		agent.NameTranslator,
		agent.NameRouter,
		agent.NameBusinessRequirements,
		agent.NameBusinessAdvisor,
		agent.NameCoder,
		agent.NameCodeFixer,
		agent.NameResultsPresenter,
		agent.NamePersonalAssistant,
		agent.NameConversationSummarizer,
		agent.NameFailuresDetector,
	}
	models := make(map[string]string, len(names))
	for _, name := range names {
		if key, ok := agent.ConfigKey(name); ok {
			models[name] = cfg.Agent(key).LLM.Model
		}
	}
	return models
}
