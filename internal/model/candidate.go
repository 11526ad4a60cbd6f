package model

import "strings"

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryScience    Category = "science"
	CategoryHistory    Category = "history"
	CategoryTechnology Category = "technology"
	CategoryFilms      Category = "films"
	CategoryTelevision Category = "television"
	CategoryGames      Category = "games"
	CategoryMusic      Category = "music"
	CategoryBooks      Category = "books"
	CategorySports     Category = "sports"
	CategoryFood       Category = "food"
	CategoryInternet   Category = "internet"
	CategoryOther      Category = "other" // fallback for anything unrecognized
)

// Categories lists every member of the closed category set in prompt order.
var Categories = []Category{
	CategoryScience,
	CategoryHistory,
	CategoryTechnology,
	CategoryFilms,
	CategoryTelevision,
	CategoryGames,
	CategoryMusic,
	CategoryBooks,
	CategorySports,
	CategoryFood,
	CategoryInternet,
	CategoryOther,
}

// ParseCategory maps a raw provider value onto the closed set. Matching is
// case-insensitive and ignores surrounding whitespace; anything outside the
// set becomes CategoryOther.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// CategoryNames returns the category set as plain strings.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}

// CandidateRecord is one schema-validated catalog entry produced by the
// discovery path. Values are only built by the validate package and are not
// mutated afterwards.
type CandidateRecord struct {
	Title     string   `json:"title" yaml:"title"`
	Question  string   `json:"question" yaml:"question"`
	VariantA  string   `json:"variantA" yaml:"variant_a"`
	VariantB  string   `json:"variantB" yaml:"variant_b"`
	Category  Category `json:"category" yaml:"category"`
	SourceURL string   `json:"sourceUrl,omitempty" yaml:"source_url,omitempty"`
}
