// Package store persists catalog entries, their enrichment and vote counts.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/versus-cli/internal/model"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = eris.New("store: not found")

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

const defaultListLimit = 100

// EntryFilter specifies criteria for listing entries.
type EntryFilter struct {
	Category          model.Category `json:"category,omitempty"`
	MissingEnrichment bool           `json:"missing_enrichment,omitempty"`
	Limit             int            `json:"limit,omitempty"`
	Offset            int            `json:"offset,omitempty"`
}

// Tally is an entry's vote counts after a vote.
type Tally struct {
	VotesA int64 `json:"votesA"`
	VotesB int64 `json:"votesB"`
}

// Store defines the persistence interface for catalog entries.
type Store interface {
	// Entries
	SaveCandidates(ctx context.Context, records []model.CandidateRecord) ([]model.Entry, error)
	GetEntry(ctx context.Context, id string) (*model.Entry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]model.Entry, error)
	Titles(ctx context.Context, limit int) ([]string, error)

	// Enrichment
	SaveEnrichment(ctx context.Context, id string, rec model.EnrichmentRecord) error

	// RecordVote increments one side's counter in a single atomic statement.
	RecordVote(ctx context.Context, id string, side model.VoteSide) (Tally, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and tunes the storage driver.
type Config struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string     `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open connects to the configured driver and applies migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		st, err = NewSQLite(cfg.SQLitePath)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: no database_url configured (set store.database_url)")
		}
		st, err = NewPostgres(ctx, cfg.DatabaseURL, &cfg.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// voteColumn validates side and returns the counter it increments.
func voteColumn(side model.VoteSide) (string, error) {
	switch side {
	case model.VoteA:
		return "votes_a", nil
	case model.VoteB:
		return "votes_b", nil
	default:
		return "", eris.Errorf("store: invalid vote side %q", side)
	}
}

func listLimit(filter EntryFilter) int {
	if filter.Limit <= 0 {
		return defaultListLimit
	}
	return filter.Limit
}

func marshalEnrichment(rec model.EnrichmentRecord) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal enrichment")
	}
	return string(data), nil
}

func unmarshalEnrichment(raw string) (*model.EnrichmentRecord, error) {
	if raw == "" {
		return nil, nil
	}
	var rec model.EnrichmentRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal enrichment")
	}
	return &rec, nil
}

func candidateEntry(id string, rec model.CandidateRecord) model.Entry {
	return model.Entry{ID: id, CandidateRecord: rec}
}
