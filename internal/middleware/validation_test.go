package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage("what time are you open"))
	assert.NoError(t, ValidateMessage(strings.Repeat("a", MaxMessageLength)))

	assert.Error(t, ValidateMessage(""))
	assert.Error(t, ValidateMessage(strings.Repeat("a", MaxMessageLength+1)))
	assert.Error(t, ValidateMessage("bad\xff utf8"))
}

func TestValidateConversationID(t *testing.T) {
	assert.NoError(t, ValidateConversationID(""))
	assert.NoError(t, ValidateConversationID("abc-123"))
	assert.NoError(t, ValidateConversationID("0190d1e2-0b5b-7c1e-9f2a-3b4c5d6e7f80"))

	assert.Error(t, ValidateConversationID(strings.Repeat("x", 129)))
	assert.Error(t, ValidateConversationID("bad\xffid"))
}
