package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolChoiceNone is returned when the provider rejects a completion
	// because the model emitted a tool call while tool choice was "none".
	// The request can be replayed as-is.
	ErrToolChoiceNone = errors.New("model called a tool while tool choice is none")

	// ErrProviderNotConfigured is returned when an agent names a provider
	// without a providers section.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrEmptyChoices is returned when the provider answered without choices.
	ErrEmptyChoices = errors.New("provider returned no choices")
)

const toolChoiceNoneMessage = "tool choice is none, but model called a tool"

// classifyError wraps provider errors that carry a known retryable message.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), toolChoiceNoneMessage) {
		return fmt.Errorf("%w: %v", ErrToolChoiceNone, err)
	}
	return err
}
