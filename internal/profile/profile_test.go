package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDetails = "Hours: Mon-Fri 9am-6pm. Location: 123 Main St, Springfield. " +
	"Pricing: Basic $10/mo, Pro $25/mo. Services: bike repairs and tune-ups."

func TestNew_ParsesFacts(t *testing.T) {
	p := New("Springfield Cycles", "bike shop", sampleDetails, "", "")

	require.Len(t, p.Facts, 4)
	assert.Equal(t, []string{"hours", "location", "pricing", "services"}, p.Categories())

	hours, ok := p.Lookup("hours")
	require.True(t, ok)
	assert.Equal(t, "Mon-Fri 9am-6pm", hours)

	location, ok := p.Lookup("location")
	require.True(t, ok)
	assert.Equal(t, "123 Main St, Springfield", location)
}

func TestNew_LookupIsCaseInsensitive(t *testing.T) {
	p := New("x", "y", "Hours: 9-5.", "", "")

	_, ok := p.Lookup("Hours")
	assert.True(t, ok)
}

func TestNew_MarkerAliases(t *testing.T) {
	p := New("x", "y", "Address: 42 Elm Ave. Phone: 555-0134.", "", "")

	location, ok := p.Lookup("location")
	require.True(t, ok)
	assert.Equal(t, "42 Elm Ave", location)

	contact, ok := p.Lookup("contact")
	require.True(t, ok)
	assert.Equal(t, "555-0134", contact)
}

func TestNew_FirstMarkerWinsPerCategory(t *testing.T) {
	p := New("x", "y", "Hours: 9-5. Hours: 10-6.", "", "")

	hours, ok := p.Lookup("hours")
	require.True(t, ok)
	assert.Equal(t, "9-5", hours)
}

func TestNew_ToleratesMalformedDetails(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"whitespace":  "   \n\t ",
		"no markers":  "we are a friendly neighborhood store",
		"bare marker": "Hours:",
	}

	for name, details := range cases {
		t.Run(name, func(t *testing.T) {
			p := New("x", "y", details, "", "")
			assert.Empty(t, p.Facts)
			_, ok := p.Lookup("hours")
			assert.False(t, ok)
		})
	}
}

func TestNew_IgnoresUnrecognizedSegments(t *testing.T) {
	p := New("x", "y", "Welcome to our store! Hours: 9-5. We love our customers.", "", "")

	require.Len(t, p.Facts, 1)
	hours, _ := p.Lookup("hours")
	assert.Equal(t, "9-5. We love our customers", hours)
}

func TestNew_TopicListsAreDisjoint(t *testing.T) {
	p := New("x", "y", "", "pricing, support, Legal Advice", "legal advice, medical advice")

	assert.Equal(t, []string{"pricing", "support"}, p.AllowedTopics)
	assert.Equal(t, []string{"legal advice", "medical advice"}, p.RestrictedTopics)
}

func TestNew_TopicNormalization(t *testing.T) {
	p := New("x", "y", "", " Pricing ,, PRICING , services ", "")

	assert.Equal(t, []string{"pricing", "services"}, p.AllowedTopics)
	assert.Empty(t, p.RestrictedTopics)
}
