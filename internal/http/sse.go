package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentmesh/internal/assistant"
	"github.com/fyrsmithlabs/agentmesh/internal/progress"
)

// sseHeartbeat keeps idle streams open through proxies.
var sseHeartbeat = 30 * time.Second

// handleEvents streams the progress events of a conversation via
// Server-Sent Events until the client disconnects.
//
//	GET /api/v1/conversations/{id}/events
//
//	event: step_started
//	data: {"type":"step_started","conversation_id":"...","step":"Router Agent",...}
func (s *Server) handleEvents(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.assistant.History(id); err != nil {
		if errors.Is(err, assistant.ErrConversationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return err
	}

	msgChan := make(chan *nats.Msg, 64)
	sub, err := s.config.Events.ChanSubscribe(progress.ConversationSubject(s.config.SubjectPrefix, id), msgChan)
	if err != nil {
		return fmt.Errorf("subscribe to conversation events: %w", err)
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": subscribed\n\n")
	w.Flush()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case msg := <-msgChan:
			e, err := progress.DecodeEvent(msg.Data)
			if err != nil {
				s.logger.Warn(ctx, "skipping malformed progress event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\n", e.Type)
			fmt.Fprintf(w, "data: %s\n\n", msg.Data)
			w.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			w.Flush()

		case <-ctx.Done():
			return nil
		}
	}
}
