package http

import (
	"github.com/fyrsmithlabs/agentmesh/internal/assistant"
	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Conversations int    `json:"conversations"`
}

// ConversationResponse is the response body for POST /api/v1/conversations.
type ConversationResponse struct {
	ID string `json:"id"`
}

// ConversationListResponse is the response body for GET /api/v1/conversations.
type ConversationListResponse struct {
	IDs []string `json:"ids"`
}

// MessageRequest is the request body for POST /api/v1/conversations/:id/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse is the response body for POST /api/v1/conversations/:id/messages.
type MessageResponse struct {
	ConversationID string           `json:"conversation_id"`
	TurnID         string           `json:"turn_id"`
	Answer         string           `json:"answer"`
	Usage          assistant.Report `json:"usage"`
	Cost           float64          `json:"cost"`
	Summarized     bool             `json:"summarized"`
}

// HistoryResponse is the response body for GET /api/v1/conversations/:id/messages.
type HistoryResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []conversation.Message `json:"messages"`
}
