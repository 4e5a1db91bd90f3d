// Package profile holds the configured business identity and its parsed
// knowledge base. A profile is built once at startup and read-only afterwards.
package profile

import (
	"sort"
	"strings"
)

// Fact is one piece of business knowledge, keyed by category.
type Fact struct {
	Category string
	Text     string
}

// Profile is the configured identity, knowledge facts and topic policy for
// the single business this instance serves.
type Profile struct {
	Name             string
	Type             string
	Facts            []Fact
	AllowedTopics    []string
	RestrictedTopics []string

	byCategory map[string]string
}

// categoryMarkers maps each knowledge category to the labels that introduce
// it in the raw details string (e.g. "Hours: Mon-Fri 9-6").
var categoryMarkers = map[string][]string{
	"hours":    {"hours"},
	"location": {"location", "address"},
	"contact":  {"contact", "phone", "email"},
	"services": {"services"},
	"pricing":  {"pricing", "prices"},
	"shipping": {"shipping", "delivery"},
	"returns":  {"returns", "return policy", "refunds"},
	"policies": {"policies"},
}

// New builds a profile from raw configuration strings. Parsing is tolerant:
// unrecognized text is ignored and an empty or malformed details string
// yields an empty knowledge base.
func New(name, businessType, details, allowedTopics, restrictedTopics string) *Profile {
	p := &Profile{
		Name:             name,
		Type:             businessType,
		RestrictedTopics: splitTopics(restrictedTopics),
		byCategory:       make(map[string]string),
	}

	// Restriction wins on conflict: a topic on both lists stays restricted.
	restricted := make(map[string]bool, len(p.RestrictedTopics))
	for _, t := range p.RestrictedTopics {
		restricted[t] = true
	}
	for _, t := range splitTopics(allowedTopics) {
		if !restricted[t] {
			p.AllowedTopics = append(p.AllowedTopics, t)
		}
	}

	p.Facts = parseFacts(details)
	for _, f := range p.Facts {
		p.byCategory[f.Category] = f.Text
	}

	return p
}

// Lookup returns the fact text for a category, if configured.
func (p *Profile) Lookup(category string) (string, bool) {
	text, ok := p.byCategory[strings.ToLower(category)]
	return text, ok
}

// Categories returns the configured knowledge categories in document order.
func (p *Profile) Categories() []string {
	categories := make([]string, len(p.Facts))
	for i, f := range p.Facts {
		categories[i] = f.Category
	}
	return categories
}

type markerHit struct {
	category string
	start    int // marker label start
	body     int // first byte after the colon
}

// parseFacts extracts category/text pairs from a free-text details string.
// A fact runs from its marker's colon to the next recognized marker (or the
// end of input). The first marker seen for a category wins.
func parseFacts(details string) []Fact {
	if strings.TrimSpace(details) == "" {
		return nil
	}

	lower := strings.ToLower(details)

	var hits []markerHit
	for category, markers := range categoryMarkers {
		for _, marker := range markers {
			for _, hit := range findMarkers(lower, marker) {
				hit.category = category
				hits = append(hits, hit)
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	seen := make(map[string]bool)
	var facts []Fact
	for i, hit := range hits {
		if seen[hit.category] {
			continue
		}
		end := len(details)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		text := strings.TrimSpace(details[hit.body:end])
		text = strings.TrimRight(text, ".,;")
		if text == "" {
			continue
		}
		seen[hit.category] = true
		facts = append(facts, Fact{Category: hit.category, Text: text})
	}

	return facts
}

// findMarkers locates every occurrence of "<marker>:" that starts at the
// beginning of input or after a non-letter byte. Later occurrences of an
// already-satisfied category still bound the preceding fact's text.
func findMarkers(lower, marker string) []markerHit {
	needle := marker + ":"
	var hits []markerHit
	from := 0
	for {
		idx := strings.Index(lower[from:], needle)
		if idx < 0 {
			return hits
		}
		idx += from
		if idx == 0 || !isLetter(lower[idx-1]) {
			hits = append(hits, markerHit{start: idx, body: idx + len(needle)})
		}
		from = idx + len(needle)
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func splitTopics(csv string) []string {
	var topics []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(csv, ",") {
		topic := strings.ToLower(strings.TrimSpace(part))
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		topics = append(topics, topic)
	}
	return topics
}
