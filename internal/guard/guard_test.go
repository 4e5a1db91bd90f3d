package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shoptalk-ai/business-chatbot/internal/profile"
)

func newProfile(allowed, restricted string) *profile.Profile {
	return profile.New("Springfield Cycles", "bike shop", "", allowed, restricted)
}

func TestClassify_RestrictedWins(t *testing.T) {
	g := New(newProfile("pricing,medical advice", "medical advice"))

	c := g.Classify("can you give me medical advice for my back")
	assert.Equal(t, Restricted, c.Decision)
	assert.Equal(t, "medical advice", c.Topic)
}

func TestClassify_RestrictedIsCaseAndPunctuationInsensitive(t *testing.T) {
	g := New(newProfile("", "medical advice"))

	for _, msg := range []string{
		"MEDICAL ADVICE please",
		"Medical... advice?",
		"I need medical\tadvice now",
	} {
		c := g.Classify(msg)
		assert.Equal(t, Restricted, c.Decision, "message %q", msg)
	}
}

func TestClassify_AllowedTopicMatch(t *testing.T) {
	g := New(newProfile("pricing,services", "medical advice"))

	c := g.Classify("what's your pricing like?")
	assert.Equal(t, Allowed, c.Decision)
	assert.Equal(t, "pricing", c.Topic)
}

func TestClassify_NeutralWhenNothingMatches(t *testing.T) {
	g := New(newProfile("pricing,services", "medical advice"))

	c := g.Classify("tell me a joke")
	assert.Equal(t, Neutral, c.Decision)
	assert.Empty(t, c.Topic)
}

func TestClassify_AllowedWithoutConfiguredList(t *testing.T) {
	g := New(newProfile("", "medical advice"))

	c := g.Classify("tell me a joke")
	assert.Equal(t, Allowed, c.Decision)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  what's   up  ", "what s up"},
		{"9am-6pm", "9am 6pm"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "restricted", Restricted.String())
	assert.Equal(t, "neutral", Neutral.String())
}
