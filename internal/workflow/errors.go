package workflow

import "errors"

var (
	// ErrUnknownRecipient is returned when the router named an agent the
	// workflow has no branch for. It fails the turn.
	ErrUnknownRecipient = errors.New("router returned an unknown recipient")

	// ErrStepLimit is returned when a turn ran more steps than allowed
	// without completing.
	ErrStepLimit = errors.New("workflow step limit exceeded")
)
