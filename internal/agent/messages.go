package agent

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// DateMessage tells the model today's date.
func DateMessage(now time.Time) llm.Message {
	return llm.System("Today date is " + now.UTC().Format("2006-01-02") + ".")
}

// RequestBuilder renders the fenced blocks most agents receive as their
// user message:
//
//	```context
//	...
//	```
//
//	```userRequest
//	...
//	```
type RequestBuilder struct {
	b strings.Builder
}

// NewRequest starts a message with the context and userRequest blocks.
func NewRequest(context, request string) *RequestBuilder {
	r := &RequestBuilder{}
	return r.With("context", context).With("userRequest", request)
}

// With appends one more labeled block.
func (r *RequestBuilder) With(label, content string) *RequestBuilder {
	r.b.WriteString("```")
	r.b.WriteString(label)
	r.b.WriteByte('\n')
	r.b.WriteString(content)
	r.b.WriteString("\n```\n\n")
	return r
}

func (r *RequestBuilder) String() string {
	return r.b.String()
}
