package provider

import "github.com/sells-group/versus-cli/internal/model"

// CandidateListSchema is the JSON schema for structured candidate output:
// an object wrapping a "candidates" array.
func CandidateListSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"candidates": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":     map[string]any{"type": "string"},
						"question":  map[string]any{"type": "string"},
						"variantA":  map[string]any{"type": "string"},
						"variantB":  map[string]any{"type": "string"},
						"category":  map[string]any{"type": "string", "enum": model.CategoryNames()},
						"sourceUrl": map[string]any{"type": "string"},
					},
					"required": []string{"title", "question", "variantA", "variantB", "category"},
				},
			},
		},
		"required": []string{"candidates"},
	}
}
