package validate

import (
	"github.com/sells-group/versus-cli/internal/model"
	"github.com/sells-group/versus-cli/internal/textnorm"
)

// Dedupe drops records whose normalized title matches one of exclusions or an
// earlier record in the batch. Titles with an empty key, such as pure
// punctuation, are never treated as duplicates. Order is preserved.
func Dedupe(records []model.CandidateRecord, exclusions []string) []model.CandidateRecord {
	seen := make(map[string]struct{}, len(exclusions)+len(records))
	for _, title := range exclusions {
		if k := textnorm.Key(title); k != "" {
			seen[k] = struct{}{}
		}
	}

	out := make([]model.CandidateRecord, 0, len(records))
	for _, rec := range records {
		k := textnorm.Key(rec.Title)
		if k == "" {
			out = append(out, rec)
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
	}
	return out
}
