package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/agentmesh/internal/assistant"
	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/progress"
)

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) NewConversation() string {
	return m.Called().String(0)
}

func (m *mockAssistant) Ask(ctx context.Context, conversationID, text string) (*assistant.Answer, error) {
	args := m.Called(ctx, conversationID, text)
	ans, _ := args.Get(0).(*assistant.Answer)
	return ans, args.Error(1)
}

func (m *mockAssistant) History(conversationID string) ([]conversation.Message, error) {
	args := m.Called(conversationID)
	msgs, _ := args.Get(0).([]conversation.Message)
	return msgs, args.Error(1)
}

func (m *mockAssistant) Delete(conversationID string) error {
	return m.Called(conversationID).Error(0)
}

func (m *mockAssistant) Conversations() []string {
	ids, _ := m.Called().Get(0).([]string)
	return ids
}

func setupTestServer(t *testing.T, cfg *Config) (*Server, *mockAssistant, *logging.TestLogger) {
	t.Helper()
	svc := &mockAssistant{}
	tl := logging.NewTestLogger()
	server, err := NewServer(svc, tl.Logger, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { svc.AssertExpectations(t) })
	return server, svc, tl
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(&mockAssistant{}, logging.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", server.config.Host)
		assert.Equal(t, 8080, server.config.Port)
		assert.Equal(t, progress.DefaultSubjectPrefix, server.config.SubjectPrefix)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(&mockAssistant{}, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when assistant is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "assistant cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server, svc, tl := setupTestServer(t, nil)
	svc.On("Conversations").Return([]string{"a", "b"})

	rec := doRequest(server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Conversations)

	tl.AssertLogged(t, zapcore.InfoLevel, "http request")
	tl.AssertField(t, "http request", "status", int64(http.StatusOK))
}

func TestHandleMetrics(t *testing.T) {
	server, _, _ := setupTestServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestConversationLifecycle(t *testing.T) {
	server, svc, _ := setupTestServer(t, nil)
	svc.On("NewConversation").Return("conv-1").Once()
	svc.On("Conversations").Return([]string{"conv-1"}).Once()
	svc.On("Delete", "conv-1").Return(nil).Once()
	svc.On("Delete", "conv-1").Return(fmt.Errorf("%w: conv-1", assistant.ErrConversationNotFound)).Once()

	rec := doRequest(server, http.MethodPost, "/api/v1/conversations", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "conv-1", created.ID)

	rec = doRequest(server, http.MethodGet, "/api/v1/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ids":["conv-1"]}`, rec.Body.String())

	rec = doRequest(server, http.MethodDelete, "/api/v1/conversations/conv-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(server, http.MethodDelete, "/api/v1/conversations/conv-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAsk(t *testing.T) {
	t.Run("returns answer, usage and cost", func(t *testing.T) {
		server, svc, _ := setupTestServer(t, nil)
		report := assistant.Report{
			Agents: []assistant.AgentUsage{{Agent: "Router", Model: "gpt-4o", Calls: 1, InputTokens: 10, OutputTokens: 2, TotalTokens: 12, Cost: 0.5, Priced: true}},
			Total:  llm.Usage{InputTokens: 10, OutputTokens: 2, TotalTokens: 12},
			Cost:   0.5,
		}
		svc.On("Ask", mock.Anything, "conv-1", "What is 2+2?").Return(&assistant.Answer{
			ConversationID: "conv-1",
			TurnID:         "turn-1",
			Text:           "4",
			Report:         report,
		}, nil)

		rec := doRequest(server, http.MethodPost, "/api/v1/conversations/conv-1/messages", `{"text":"What is 2+2?"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp MessageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "4", resp.Answer)
		assert.Equal(t, "turn-1", resp.TurnID)
		assert.InDelta(t, 0.5, resp.Cost, 1e-9)
		assert.Equal(t, 12, resp.Usage.Total.TotalTokens)
		require.Len(t, resp.Usage.Agents, 1)
		assert.False(t, resp.Summarized)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		server, _, _ := setupTestServer(t, nil)
		rec := doRequest(server, http.MethodPost, "/api/v1/conversations/conv-1/messages", `{"text":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "text field is required")
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		server, _, _ := setupTestServer(t, nil)
		rec := doRequest(server, http.MethodPost, "/api/v1/conversations/conv-1/messages", `{"text":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps errors to status codes", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			code int
		}{
			{"unknown conversation", fmt.Errorf("%w: x", assistant.ErrConversationNotFound), http.StatusNotFound},
			{"timeout", fmt.Errorf("turn t: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
			{"turn failure", errors.New("step Routing: unknown recipient"), http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server, svc, _ := setupTestServer(t, nil)
				svc.On("Ask", mock.Anything, "x", "hi").Return(nil, tt.err)

				rec := doRequest(server, http.MethodPost, "/api/v1/conversations/x/messages", `{"text":"hi"}`)
				assert.Equal(t, tt.code, rec.Code)
			})
		}
	})

	t.Run("applies the turn timeout", func(t *testing.T) {
		server, svc, _ := setupTestServer(t, &Config{TurnTimeout: time.Minute})
		svc.On("Ask", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), "conv-1", "hi").Return(&assistant.Answer{Text: "hello"}, nil)

		rec := doRequest(server, http.MethodPost, "/api/v1/conversations/conv-1/messages", `{"text":"hi"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleHistory(t *testing.T) {
	server, svc, _ := setupTestServer(t, nil)
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	svc.On("History", "conv-1").Return([]conversation.Message{
		{Role: conversation.RoleUser, Text: "hi", Timestamp: at},
		{Role: conversation.RoleAssistant, Text: "hello", Timestamp: at},
	}, nil)
	svc.On("History", "empty").Return(nil, nil)
	svc.On("History", "gone").Return(nil, assistant.ErrConversationNotFound)

	rec := doRequest(server, http.MethodGet, "/api/v1/conversations/conv-1/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, conversation.RoleUser, resp.Messages[0].Role)
	assert.Equal(t, "hello", resp.Messages[1].Text)

	rec = doRequest(server, http.MethodGet, "/api/v1/conversations/empty/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"messages":[]`)

	rec = doRequest(server, http.MethodGet, "/api/v1/conversations/gone/messages", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleEvents_NotRegisteredWithoutNATS(t *testing.T) {
	server, _, _ := setupTestServer(t, nil)
	rec := doRequest(server, http.MethodGet, "/api/v1/conversations/conv-1/events", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	server, err := natsserver.NewServer(&natsserver.Options{
		Host:           "127.0.0.1",
		Port:           -1,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 2048,
	})
	require.NoError(t, err)

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})
	return server
}

func TestHandleEvents_StreamsProgress(t *testing.T) {
	ns := startTestNATSServer(t)
	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	server, svc, _ := setupTestServer(t, &Config{Events: nc, SubjectPrefix: "mesh"})
	svc.On("History", "conv-1").Return([]conversation.Message{}, nil)
	svc.On("History", "gone").Return(nil, assistant.ErrConversationNotFound)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/v1/conversations/gone/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/conversations/conv-1/events", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": subscribed\n", line)

	pubCtx := logging.WithTurnID(logging.WithConversationID(context.Background(), "conv-1"), "turn-1")
	pub := progress.NewPublisher(nc, "mesh", nil)
	pub.OnStepStart(pubCtx, "Router Agent", map[string]string{"Sentence": "hi"})
	require.NoError(t, nc.Flush())

	var event, data string
	for event == "" || data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, string(progress.EventStepStarted), event)

	e, err := progress.DecodeEvent([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "Router Agent", e.Step)
	assert.Equal(t, "turn-1", e.TurnID)
}

func TestToHTTPError_LogsTurnFailures(t *testing.T) {
	server, svc, tl := setupTestServer(t, nil)
	svc.On("Ask", mock.Anything, "c", "hi").Return(nil, errors.New("model unavailable"))

	rec := doRequest(server, http.MethodPost, "/api/v1/conversations/c/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte("model unavailable")))
	tl.AssertLogged(t, zapcore.ErrorLevel, "turn failed")
}
