package agent

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/resilience"
)

// ErrEmptyResponse is returned when the model answered with blank text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// MalformedResponseError is returned when the model's answer does not have
// the structure the agent expects.
type MalformedResponseError struct {
	Agent  string
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Agent, e.Reason)
}

func malformed(agent, raw, reason string) error {
	return &MalformedResponseError{Agent: agent, Raw: raw, Reason: reason}
}

// Recoverable reports whether a failed agent call may be replayed.
var Recoverable = resilience.AnyOf(
	resilience.Is(ErrEmptyResponse, llm.ErrToolChoiceNone),
	resilience.As[*MalformedResponseError](),
)
