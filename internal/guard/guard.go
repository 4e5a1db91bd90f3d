// Package guard classifies incoming messages against the configured
// allowed/restricted topic lists.
package guard

import (
	"strings"
	"unicode"

	"github.com/shoptalk-ai/business-chatbot/internal/profile"
)

// Decision is the topic classification of a message.
type Decision int

const (
	// Allowed means the message matched an allowed topic, or no allowed
	// list is configured.
	Allowed Decision = iota
	// Restricted means the message touched a restricted topic and must be
	// refused without reaching the matcher or the fallback.
	Restricted
	// Neutral means an allowed list is configured but the message matched
	// neither list. Neutral messages may still be answered, but generically.
	Neutral
)

func (d Decision) String() string {
	switch d {
	case Restricted:
		return "restricted"
	case Neutral:
		return "neutral"
	default:
		return "allowed"
	}
}

// Guard classifies messages against one business profile's topic policy.
type Guard struct {
	profile *profile.Profile
}

// New creates a guard for the given profile.
func New(p *profile.Profile) *Guard {
	return &Guard{profile: p}
}

// Classification is a decision plus the topic phrase that produced it.
// Topic is empty for Neutral and for Allowed without a configured list.
type Classification struct {
	Decision Decision
	Topic    string
}

// Classify decides whether a message is allowed, restricted or neutral.
// Restriction wins: any restricted phrase match refuses the message even if
// an allowed topic also matches.
func (g *Guard) Classify(message string) Classification {
	normalized := Normalize(message)

	for _, topic := range g.profile.RestrictedTopics {
		if strings.Contains(normalized, topic) {
			return Classification{Decision: Restricted, Topic: topic}
		}
	}

	if len(g.profile.AllowedTopics) > 0 {
		for _, topic := range g.profile.AllowedTopics {
			if strings.Contains(normalized, topic) {
				return Classification{Decision: Allowed, Topic: topic}
			}
		}
		return Classification{Decision: Neutral}
	}

	return Classification{Decision: Allowed}
}

// Normalize lowercases a message, replaces punctuation with spaces and
// collapses runs of whitespace, so multi-word topics match naturally.
func Normalize(message string) string {
	var b strings.Builder
	b.Grow(len(message))

	lastSpace := true
	for _, r := range strings.ToLower(message) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}
