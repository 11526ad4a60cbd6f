package model

import "time"

// SearchEvidence is one retrieved, filtered search snippet used to ground
// generated content.
type SearchEvidence struct {
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Text           string     `json:"text"`
	PublishedDate  *time.Time `json:"publishedDate,omitempty"`
	RelevanceScore *float64   `json:"relevanceScore,omitempty"`
}
