package middleware

import (
	"errors"
	"unicode/utf8"
)

// MaxMessageLength is the longest accepted user message.
const MaxMessageLength = 1000

// ValidateMessage validates the user message of a chat request.
func ValidateMessage(message string) error {
	if len(message) == 0 {
		return errors.New("message cannot be empty")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(message) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a caller-supplied conversation ID. IDs are
// opaque: any short printable string is accepted, an empty one means "create".
func ValidateConversationID(id string) error {
	if len(id) > 128 {
		return errors.New("conversation ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("conversation ID must be valid UTF-8")
	}
	return nil
}
