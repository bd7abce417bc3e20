package llm

import "context"

// Role tags a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    Role
	Content string
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant builds an assistant message.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Usage holds the token counters reported for one model call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}

// Response is the result of one model call.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Gateway is a chat-completion backend bound to one model configuration.
type Gateway interface {
	Generate(ctx context.Context, systemPrompt string, messages []Message) (*Response, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, systemPrompt string, messages []Message) (*Response, error)

// Generate calls f.
func (f GatewayFunc) Generate(ctx context.Context, systemPrompt string, messages []Message) (*Response, error) {
	return f(ctx, systemPrompt, messages)
}
