package records

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidRecord        = errors.New("invalid record")
)
