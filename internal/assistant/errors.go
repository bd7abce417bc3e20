package assistant

import "errors"

var (
	// ErrConversationNotFound is returned for unknown conversation IDs.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyRequest is returned when the user text is blank.
	ErrEmptyRequest = errors.New("request text is empty")
)
