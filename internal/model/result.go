package model

import "time"

// Attempt records one adapter invocation inside a pipeline run.
type Attempt struct {
	Stage      string  `json:"stage"`
	Provider   string  `json:"provider"`
	Outcome    string  `json:"outcome"` // "success" or an error kind
	Error      string  `json:"error,omitempty"`
	DurationMs int64   `json:"duration_ms"`
	CostUSD    float64 `json:"cost_usd,omitempty"`
}

// PipelineResult is the only type returned across the pipeline boundary.
// Exactly one of Data (Success=true) or Error (Success=false) is meaningful.
type PipelineResult[T any] struct {
	Success      bool      `json:"success" yaml:"success"`
	Data         T         `json:"data,omitempty" yaml:"data,omitempty"`
	ProviderUsed string    `json:"providerUsed,omitempty" yaml:"provider_used,omitempty"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
	Detail       string    `json:"detail,omitempty" yaml:"detail,omitempty"`
	Attempts     []Attempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	CostUSD      float64   `json:"costUsd,omitempty" yaml:"cost_usd,omitempty"`
}

// VoteSide selects which variant a vote counts towards.
type VoteSide string

const (
	VoteA VoteSide = "a"
	VoteB VoteSide = "b"
)

// Entry is a persisted catalog entry with its identity and vote counters.
type Entry struct {
	ID              string `json:"id" yaml:"id"`
	CandidateRecord `yaml:",inline"`

	VotesA     int64             `json:"votesA" yaml:"votes_a"`
	VotesB     int64             `json:"votesB" yaml:"votes_b"`
	Enrichment *EnrichmentRecord `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
	CreatedAt  time.Time         `json:"createdAt" yaml:"created_at"`
	UpdatedAt  time.Time         `json:"updatedAt" yaml:"updated_at"`
}
