// Package llm is the model gateway used by every agent.
//
// A Gateway sends a system prompt and an ordered list of role-tagged
// messages to a chat-completion provider and returns the generated text with
// its token usage. One gateway is built per agent so model, temperature and
// token limits can differ between agents while sharing a provider's rate
// limiter.
//
// Provider errors are returned as-is except for the "tool choice is none, but
// model called a tool" failure, which is wrapped in ErrToolChoiceNone so the
// resilience policy can retry it.
package llm
