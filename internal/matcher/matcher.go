// Package matcher maps user messages to business knowledge categories via
// keyword scoring. Matching is pure and deterministic: the same message and
// profile always produce the same result.
package matcher

import (
	"fmt"
	"strings"

	"github.com/shoptalk-ai/business-chatbot/internal/guard"
	"github.com/shoptalk-ai/business-chatbot/internal/profile"
)

// Rule associates one knowledge category with its trigger keywords. Rule
// order is the tie-break priority: earlier rules win equal scores.
type Rule struct {
	Category string
	Keywords []string
}

// rules is the default trigger table. Multi-word keywords weigh more than
// single words, so the more specific category wins close calls.
var rules = []Rule{
	{Category: "hours", Keywords: []string{"hours", "open", "close", "closing", "opening", "what time", "when are you open"}},
	{Category: "location", Keywords: []string{"location", "address", "where are you", "where located", "directions"}},
	{Category: "contact", Keywords: []string{"contact", "phone", "email", "call", "reach you", "get in touch"}},
	{Category: "services", Keywords: []string{"service", "services", "what do you do", "what do you offer"}},
	{Category: "pricing", Keywords: []string{"price", "prices", "cost", "how much", "pricing", "plan"}},
	{Category: "shipping", Keywords: []string{"shipping", "delivery", "ship", "deliver"}},
	{Category: "returns", Keywords: []string{"return", "refund", "money back", "exchange"}},
	{Category: "policies", Keywords: []string{"policy", "policies", "terms"}},
}

// replyTemplates wrap a matched fact in a short natural-language reply.
var replyTemplates = map[string]string{
	"hours":    "Our hours: %s. Is there anything else you'd like to know?",
	"location": "We're located at: %s. Feel free to visit us!",
	"contact":  "You can reach us at: %s. We're here to help!",
	"services": "We offer: %s. What can I help you with today?",
	"pricing":  "Our pricing: %s. Would you like more details on any specific plan?",
	"shipping": "Regarding shipping: %s. Can I help you with anything else?",
	"returns":  "Our return policy: %s. Let me know if you have questions!",
}

// MinScore is the minimum score for a category to match.
const MinScore = 1

// Result is the outcome of matching one message against one profile.
type Result struct {
	Matched  bool
	Category string
	Score    int
	Answer   string
}

// Matcher scores messages against a rule table.
type Matcher struct {
	rules []Rule
}

// New creates a matcher with the default rule table.
func New() *Matcher {
	return &Matcher{rules: rules}
}

// NewWithRules creates a matcher with a custom rule table.
func NewWithRules(custom []Rule) *Matcher {
	return &Matcher{rules: custom}
}

// Match scores every category with a configured fact and returns the best
// one at or above MinScore. Ties go to the rule listed first.
func (m *Matcher) Match(message string, p *profile.Profile) Result {
	normalized := guard.Normalize(message)
	if normalized == "" {
		return Result{}
	}

	best := Result{}
	for _, rule := range m.rules {
		fact, ok := p.Lookup(rule.Category)
		if !ok {
			continue
		}

		score := scoreKeywords(normalized, rule.Keywords)
		if score < MinScore || score <= best.Score {
			continue
		}

		best = Result{
			Matched:  true,
			Category: rule.Category,
			Score:    score,
			Answer:   composeAnswer(rule.Category, fact),
		}
	}

	return best
}

// scoreKeywords counts keyword occurrences, weighting each occurrence by the
// keyword's word count so specific phrases beat generic single words.
func scoreKeywords(normalized string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if n := strings.Count(normalized, kw); n > 0 {
			weight := len(strings.Fields(kw))
			score += n * weight
		}
	}
	return score
}

func composeAnswer(category, fact string) string {
	if tmpl, ok := replyTemplates[category]; ok {
		return fmt.Sprintf(tmpl, fact)
	}
	return fmt.Sprintf("Our %s: %s.", category, fact)
}
