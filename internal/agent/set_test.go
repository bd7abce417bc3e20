package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewaySourceFunc func(key, agentName string) (llm.Gateway, error)

func (f gatewaySourceFunc) Gateway(key, agentName string) (llm.Gateway, error) {
	return f(key, agentName)
}

func TestDefaultPrompt_EveryModelAgent(t *testing.T) {
	keys := []string{
		config.AgentRouter, config.AgentTranslator, config.AgentContextAnalyzer,
		config.AgentBusinessRequirements, config.AgentBusinessAdvisor, config.AgentCoder,
		config.AgentCodeFixer, config.AgentResultsPresenter, config.AgentPersonalAssistant,
		config.AgentConversationSummarizer, config.AgentExecutionFailuresDetector,
	}
	for _, key := range keys {
		prompt, err := DefaultPrompt(key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, prompt, key)
	}

	_, err := DefaultPrompt("unknown")
	assert.Error(t, err)
}

func TestNewSet(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = map[string]config.AgentConfig{
		config.AgentRouter: {SystemPrompt: "custom routing"},
	}

	gateways := map[string]*llm.ScriptedGateway{}
	src := gatewaySourceFunc(func(key, agentName string) (llm.Gateway, error) {
		gw := llm.NewScriptedGateway(llm.Reply(`{"recipient":"PersonalAssistant"}`, 1, 1))
		gateways[key] = gw
		return gw, nil
	})

	set, err := NewSet(cfg, src, nil, testDeps(0))
	require.NoError(t, err)

	assert.NotNil(t, set.ContextAnalyzer)
	assert.NotNil(t, set.Translator)
	assert.NotNil(t, set.Router)
	assert.NotNil(t, set.BusinessRequirements)
	assert.NotNil(t, set.BusinessAdvisor)
	assert.NotNil(t, set.Coder)
	assert.NotNil(t, set.StaticAnalyzer)
	assert.NotNil(t, set.CodeFixer)
	assert.NotNil(t, set.ResultsPresenter)
	assert.NotNil(t, set.PersonalAssistant)
	assert.NotNil(t, set.FailuresDetector)
	assert.NotNil(t, set.Summarizer)
	assert.Len(t, gateways, 11)

	_, err = set.Router.Execute(context.Background(), RouterInput{Request: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "custom routing", gateways[config.AgentRouter].Calls()[0].SystemPrompt)
}

func TestNewSet_GatewayError(t *testing.T) {
	boom := errors.New("no api key")
	src := gatewaySourceFunc(func(key, agentName string) (llm.Gateway, error) {
		return nil, boom
	})

	_, err := NewSet(config.Default(), src, nil, testDeps(0))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), NameContextAnalyzer)
}

func TestConfigKey(t *testing.T) {
	key, ok := ConfigKey(NameCoder)
	assert.True(t, ok)
	assert.Equal(t, config.AgentCoder, key)

	key, ok = ConfigKey(NameFailuresDetector)
	assert.True(t, ok)
	assert.Equal(t, config.AgentExecutionFailuresDetector, key)

	_, ok = ConfigKey(NameStaticAnalyzer)
	assert.False(t, ok)
}
