package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// RouterInput is the translated request and context.
type RouterInput struct {
	Request string
	Context string
}

// RouterOutput names the agent that should handle the request. Recipient is
// the raw name; the workflow decides whether it is one it knows.
type RouterOutput struct {
	Recipient string
	Rationale string
	Usage     llm.Usage
}

// Router picks the branch of the turn.
type Router struct {
	base
	allowed map[string]bool
}

// NewRouter creates the router. When allowed is non-empty, any other
// recipient is rejected as malformed and retried.
func NewRouter(gateway llm.Gateway, prompt string, allowed []string, deps Deps) *Router {
	r := &Router{base: newBase(NameRouter, gateway, prompt, deps)}
	if len(allowed) > 0 {
		r.allowed = make(map[string]bool, len(allowed))
		for _, name := range allowed {
			r.allowed[normalizeName(name)] = true
		}
	}
	return r
}

// Execute implements Agent.
func (a *Router) Execute(ctx context.Context, in RouterInput) (RouterOutput, error) {
	messages := []llm.Message{
		a.dateMessage(),
		llm.User(NewRequest(in.Context, in.Request).String()),
	}

	out, usage, err := call(ctx, &a.base, messages, a.parse)
	if err != nil {
		return RouterOutput{}, err
	}
	out.Usage = usage
	return out, nil
}

func (a *Router) parse(text string) (RouterOutput, error) {
	var out RouterOutput

	if raw := strings.TrimSpace(unfenceJSON(text)); strings.HasPrefix(raw, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return RouterOutput{}, malformed(a.name, text, "invalid JSON: "+err.Error())
		}
		for k, v := range fields {
			s, _ := v.(string)
			switch strings.ToLower(k) {
			case "recipient":
				out.Recipient = strings.TrimSpace(s)
			case "rationale":
				out.Rationale = strings.TrimSpace(s)
			}
		}
	} else {
		line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
		out.Recipient = strings.Trim(strings.TrimSpace(line), "\"'`.")
	}

	if out.Recipient == "" {
		return RouterOutput{}, malformed(a.name, text, "no recipient")
	}
	if a.allowed != nil && !a.allowed[normalizeName(out.Recipient)] {
		return RouterOutput{}, malformed(a.name, text, fmt.Sprintf("recipient %q is not allowed", out.Recipient))
	}
	return out, nil
}
