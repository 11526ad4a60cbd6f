// Package validate narrows untrusted provider payloads into typed records.
package validate

import (
	"strings"

	"github.com/sells-group/versus-cli/internal/extract"
	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/resilience"
)

// wrapperKeys are the object keys under which providers commonly nest the
// candidate array instead of returning it bare.
var wrapperKeys = []string{"candidates", "items", "entries", "results"}

// Candidates validates a decoded JSON value as a list of candidate records.
// Malformed elements are dropped, never repaired. The result is an error only
// when parsed is not an array (KindInvalidResponse) or nothing survives
// (KindNoValidRecords).
func Candidates(parsed any) ([]model.CandidateRecord, error) {
	items, ok := parsed.([]any)
	if !ok {
		return nil, resilience.Failuref(resilience.KindInvalidResponse, "", "expected a JSON array, got %s", typeName(parsed))
	}

	records := make([]model.CandidateRecord, 0, len(items))
	for _, item := range items {
		rec, ok := candidate(item)
		if ok {
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return nil, resilience.Failuref(resilience.KindNoValidRecords, "", "0 of %d elements passed validation", len(items))
	}
	return records, nil
}

// ParseCandidates extracts JSON from raw provider text and validates it.
func ParseCandidates(text string) ([]model.CandidateRecord, error) {
	var parsed any
	if err := extract.Unmarshal(text, &parsed); err != nil {
		return nil, resilience.NewFailure(resilience.KindInvalidResponse, "", err)
	}
	return Candidates(unwrapArray(parsed))
}

// unwrapArray returns the array nested under a wrapper key, or parsed
// unchanged.
func unwrapArray(parsed any) any {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return parsed
	}
	for _, k := range wrapperKeys {
		if arr, ok := obj[k].([]any); ok {
			return arr
		}
	}
	return parsed
}

func candidate(item any) (model.CandidateRecord, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return model.CandidateRecord{}, false
	}

	title, ok1 := stringField(obj, "title")
	question, ok2 := stringField(obj, "question", "prompt")
	variantA, ok3 := stringField(obj, "variantA")
	variantB, ok4 := stringField(obj, "variantB")
	category, ok5 := stringField(obj, "category")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return model.CandidateRecord{}, false
	}

	title = strings.TrimSpace(title)
	question = strings.TrimSpace(question)
	variantA = strings.TrimSpace(variantA)
	variantB = strings.TrimSpace(variantB)
	if title == "" || question == "" || variantA == "" || variantB == "" {
		return model.CandidateRecord{}, false
	}
	if strings.EqualFold(variantA, variantB) {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{
		Title:    title,
		Question: question,
		VariantA: variantA,
		VariantB: variantB,
		Category: model.ParseCategory(category),
	}
	if src, ok := obj["sourceUrl"].(string); ok {
		rec.SourceURL = strings.TrimSpace(src)
	}
	return rec, true
}

// stringField returns the first of keys present in obj. It reports false
// when none is present or the value found is not a string.
func stringField(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, present := obj[k]
		if !present {
			continue
		}
		s, ok := v.(string)
		return s, ok
	}
	return "", false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "unknown"
	}
}
