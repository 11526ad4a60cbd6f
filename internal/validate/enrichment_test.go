package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/resilience"
)

func TestParseEnrichment_CoercesSections(t *testing.T) {
	t.Parallel()

	text := "```json\n" + `{
		"currentState": ["First point.", "Second point."],
		"scientificView": "  Studies disagree. ",
		"communityReaction": 42,
		"history": {"nested": "dropped"},
		"counterEvidence": "Some disagree.",
		"currentStateSource": "https://example.com/state",
		"imagePrompt": "two cats"
	}` + "\n```"

	rec, err := ParseEnrichment(text, nil, "Cats vs Dogs")
	require.NoError(t, err)

	assert.Equal(t, "First point.\n\nSecond point.", rec.CurrentState)
	assert.Equal(t, "Studies disagree.", rec.ScientificView)
	assert.Equal(t, "42", rec.CommunityReaction)
	assert.Empty(t, rec.History)
	assert.Equal(t, "Some disagree.", rec.CounterEvidence)
	assert.Equal(t, "https://example.com/state", rec.CurrentStateSource)
	assert.Equal(t, "https://www.google.com/search?q=Cats+vs+Dogs", rec.CounterEvidenceSource)
	assert.Equal(t, "two cats", rec.ImagePrompt)
}

func TestParseEnrichment_CitationFromEvidence(t *testing.T) {
	t.Parallel()

	evidence := []model.SearchEvidence{{Title: "E", URL: "https://news.example.org/a"}}
	rec, err := ParseEnrichment(`{"current_state":"Now.","counterEvidenceSource":"not a url"}`, evidence, "T")
	require.NoError(t, err)

	assert.Equal(t, "Now.", rec.CurrentState)
	assert.Equal(t, "https://news.example.org/a", rec.CurrentStateSource)
	assert.Equal(t, "https://news.example.org/a", rec.CounterEvidenceSource)
}

func TestParseEnrichment_Wrapped(t *testing.T) {
	t.Parallel()

	rec, err := ParseEnrichment(`{"enrichment":{"history":"Long ago."}}`, nil, "T")
	require.NoError(t, err)
	assert.Equal(t, "Long ago.", rec.History)
	assert.NotEmpty(t, rec.CurrentStateSource)
}

func TestParseEnrichment_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want resilience.ErrorKind
	}{
		{"not json", "no idea", resilience.KindInvalidResponse},
		{"array", `["a","b"]`, resilience.KindInvalidResponse},
		{"all empty", `{"currentState":"  ","history":[]}`, resilience.KindNoValidRecords},
		{"unknown keys", `{"summary":"text"}`, resilience.KindNoValidRecords},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseEnrichment(tt.text, nil, "T")
			require.Error(t, err)
			assert.Equal(t, tt.want, resilience.KindOf(err))
		})
	}
}

func TestSearchURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.google.com/search?q=Tabs+%26+Spaces", SearchURL("Tabs & Spaces"))
}
