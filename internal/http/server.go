// Package http provides the HTTP API of agentmesh.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentmesh/internal/assistant"
	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/progress"
)

// Assistant is the conversation surface the server exposes.
// *assistant.Service implements it.
type Assistant interface {
	NewConversation() string
	Ask(ctx context.Context, conversationID, text string) (*assistant.Answer, error)
	History(conversationID string) ([]conversation.Message, error)
	Delete(conversationID string) error
	Conversations() []string
}

// Server provides HTTP endpoints for agentmesh.
type Server struct {
	echo      *echo.Echo
	assistant Assistant
	logger    *logging.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// TurnTimeout bounds one POST .../messages request. Zero means no bound.
	TurnTimeout time.Duration
	// Events enables GET .../events when set.
	Events *nats.Conn
	// SubjectPrefix is the progress subject prefix used with Events.
	SubjectPrefix string
	// Meter receives request metrics. Nil means the global meter provider.
	Meter metric.Meter
}

// NewServer creates a new HTTP server.
func NewServer(svc Assistant, logger *logging.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("assistant cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 8080,
		}
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = progress.DefaultSubjectPrefix
	}
	logger = logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if m, err := newRequestMetrics(cfg.Meter); err != nil {
		logger.Warn(context.Background(), "request metrics disabled", zap.Error(err))
	} else {
		e.Use(m.middleware())
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let echo write the response so the logged status is final.
				c.Error(err)
				err = nil
			}

			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:      e,
		assistant: svc,
		logger:    logger,
		config:    cfg,
	}
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/conversations", s.handleCreateConversation)
	v1.GET("/conversations", s.handleListConversations)
	v1.DELETE("/conversations/:id", s.handleDeleteConversation)
	v1.POST("/conversations/:id/messages", s.handleAsk)
	v1.GET("/conversations/:id/messages", s.handleHistory)
	if s.config.Events != nil {
		v1.GET("/conversations/:id/events", s.handleEvents)
	}
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Conversations: len(s.assistant.Conversations()),
	})
}

func (s *Server) handleCreateConversation(c echo.Context) error {
	id := s.assistant.NewConversation()
	s.logger.Debug(c.Request().Context(), "conversation created", zap.String("conversation.id", id))
	return c.JSON(http.StatusCreated, ConversationResponse{ID: id})
}

func (s *Server) handleListConversations(c echo.Context) error {
	return c.JSON(http.StatusOK, ConversationListResponse{IDs: s.assistant.Conversations()})
}

func (s *Server) handleDeleteConversation(c echo.Context) error {
	if err := s.assistant.Delete(c.Param("id")); err != nil {
		return s.toHTTPError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAsk(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid message request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}

	ctx := c.Request().Context()
	if s.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TurnTimeout)
		defer cancel()
	}

	ans, err := s.assistant.Ask(ctx, c.Param("id"), req.Text)
	if err != nil {
		return s.toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{
		ConversationID: ans.ConversationID,
		TurnID:         ans.TurnID,
		Answer:         ans.Text,
		Usage:          ans.Report,
		Cost:           ans.Report.Cost,
		Summarized:     ans.Summary != nil,
	})
}

func (s *Server) handleHistory(c echo.Context) error {
	id := c.Param("id")
	messages, err := s.assistant.History(id)
	if err != nil {
		return s.toHTTPError(c, err)
	}
	if messages == nil {
		messages = []conversation.Message{}
	}
	return c.JSON(http.StatusOK, HistoryResponse{ConversationID: id, Messages: messages})
}

// toHTTPError maps service errors to status codes. Turn failures are not
// client errors; their message is passed through for the caller to surface.
func (s *Server) toHTTPError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, assistant.ErrConversationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	case errors.Is(err, assistant.ErrEmptyRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "turn timed out")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	}
	s.logger.Error(c.Request().Context(), "turn failed", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
