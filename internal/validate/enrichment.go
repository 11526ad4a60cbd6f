package validate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/versus-cli/internal/extract"
	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/resilience"
)

// sectionAliases lists accepted provider keys per section, canonical first.
var sectionAliases = map[model.Section][]string{
	model.SectionCurrentState:      {"currentState", "current_state"},
	model.SectionScientificView:    {"scientificView", "scientific_view"},
	model.SectionCommunityReaction: {"communityReaction", "community_reaction"},
	model.SectionHistory:           {"history"},
	model.SectionCounterEvidence:   {"counterEvidence", "counter_evidence"},
}

// SearchURL is the citation used when neither the provider nor the evidence
// supplies one.
func SearchURL(title string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(title)
}

// ParseEnrichment extracts and validates an enrichment object from raw
// provider text. Every section is coerced to a single string and both
// citations are always populated.
func ParseEnrichment(text string, evidence []model.SearchEvidence, title string) (model.EnrichmentRecord, error) {
	var parsed any
	if err := extract.Unmarshal(text, &parsed); err != nil {
		return model.EnrichmentRecord{}, resilience.NewFailure(resilience.KindInvalidResponse, "", err)
	}
	return Enrichment(parsed, evidence, title)
}

// Enrichment validates a decoded JSON value as an enrichment record.
func Enrichment(parsed any, evidence []model.SearchEvidence, title string) (model.EnrichmentRecord, error) {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return model.EnrichmentRecord{}, resilience.Failuref(resilience.KindInvalidResponse, "", "expected a JSON object, got %s", typeName(parsed))
	}
	if inner, ok := obj["enrichment"].(map[string]any); ok {
		obj = inner
	}

	var rec model.EnrichmentRecord
	for _, s := range model.Sections {
		for _, k := range sectionAliases[s] {
			if v, present := obj[k]; present {
				rec.Set(s, coerce(v))
				break
			}
		}
	}
	if rec.Empty() {
		return model.EnrichmentRecord{}, resilience.Failuref(resilience.KindNoValidRecords, "", "no enrichment section has text")
	}

	fallback := SearchURL(title)
	if len(evidence) > 0 && isHTTPURL(evidence[0].URL) {
		fallback = evidence[0].URL
	}
	rec.CurrentStateSource = citation(obj, fallback, "currentStateSource", "current_state_source")
	rec.CounterEvidenceSource = citation(obj, fallback, "counterEvidenceSource", "counter_evidence_source")
	rec.ImagePrompt = coerce(firstPresent(obj, "imagePrompt", "image_prompt"))

	return rec, nil
}

// coerce turns a JSON value into a single trimmed string. Arrays are joined
// with a blank line; objects are dropped.
func coerce(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			if s := coerce(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n\n")
	default:
		return ""
	}
}

func citation(obj map[string]any, fallback string, keys ...string) string {
	if s, ok := firstPresent(obj, keys...).(string); ok {
		s = strings.TrimSpace(s)
		if isHTTPURL(s) {
			return s
		}
	}
	return fallback
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
