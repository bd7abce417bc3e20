package conversation

import (
	"strings"
	"time"
)

// Role tags a history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label is the capitalized role name used in serialized history.
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

// Message is one entry of the history.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// summaryPrefix starts the synthetic message that replaces summarized history.
const summaryPrefix = "Summary of previous conversation: "

// IsSummary reports whether m was produced by summarization.
func (m Message) IsSummary() bool {
	return m.Role == RoleAssistant && strings.HasPrefix(m.Text, summaryPrefix)
}
