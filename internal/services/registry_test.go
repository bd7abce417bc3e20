package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/fyrsmithlabs/agentmesh/internal/agent"
	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/sandbox"
)

type scriptedGateways map[string]*llm.ScriptedGateway

func (g scriptedGateways) Gateway(_, agentName string) (llm.Gateway, error) {
	if gw, ok := g[agentName]; ok {
		return gw, nil
	}
	return llm.NewScriptedGateway(), nil
}

var noSandbox = sandbox.RunnerFunc(func(context.Context, string) (sandbox.Result, error) {
	return sandbox.Result{}, errors.New("sandbox not expected")
})

func TestNewRegistry_RequiresConfig(t *testing.T) {
	_, err := NewRegistry(nil, Options{})
	assert.Error(t, err)
}

func TestNewRegistry_WiresAssistant(t *testing.T) {
	cfg := config.Default()
	cfg.Pricing = map[string]config.PricingConfig{
		cfg.LLM.Model: {InputPerMillion: 1_000_000, OutputPerMillion: 0},
	}
	gateways := scriptedGateways{
		agent.NameContextAnalyzer: llm.NewScriptedGateway(llm.Reply(agent.NoRelevantContext, 3, 1)),
		agent.NameTranslator: llm.NewScriptedGateway(llm.Reply(
			"<DETECTED_LANGUAGE>English</DETECTED_LANGUAGE><TRANSLATED_REQUEST>hi</TRANSLATED_REQUEST><TRANSLATED_CONTEXT>NO_CONTEXT</TRANSLATED_CONTEXT>",
			2, 2)),
		agent.NameRouter:            llm.NewScriptedGateway(llm.Reply(`{"recipient":"PersonalAssistant"}`, 4, 1)),
		agent.NamePersonalAssistant: llm.NewScriptedGateway(llm.Reply("Hello there.", 5, 3)),
	}

	reg, err := NewRegistry(cfg, Options{
		Logger:   logging.NewNop(),
		Gateways: gateways,
		Runner:   noSandbox,
		Meter:    noop.NewMeterProvider().Meter("test"),
		Now:      func() time.Time { return time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	assert.Same(t, cfg, reg.Config())
	assert.NotNil(t, reg.Agents().Summarizer)
	assert.Equal(t, cfg.Workflow.MaxFixIterations, reg.Engine().Limits().MaxFixIterations)

	svc := reg.Assistant()
	id := svc.NewConversation()
	_, ok := reg.Conversations().Get(id)
	assert.True(t, ok)

	ans, err := svc.Ask(context.Background(), id, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", ans.Text)
	assert.Equal(t, 14, ans.Report.Total.InputTokens)
	assert.InDelta(t, 14.0, ans.Report.Cost, 1e-9)

	history, err := svc.History(id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestNewRegistry_GatewayError(t *testing.T) {
	cfg := config.Default()
	_, err := NewRegistry(cfg, Options{Gateways: failingGateways{}, Runner: noSandbox})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build agents")
}

type failingGateways struct{}

func (failingGateways) Gateway(key, _ string) (llm.Gateway, error) {
	return nil, errors.New("no provider for " + key)
}

func TestNewRegistry_InvalidAnalysisRule(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Rules = []config.RuleConfig{{ID: "broken", Pattern: "(", Message: "x"}}
	_, err := NewRegistry(cfg, Options{Gateways: scriptedGateways{}, Runner: noSandbox})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "static analyzer")
}
