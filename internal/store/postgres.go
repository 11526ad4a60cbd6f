package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/versus-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	title      TEXT NOT NULL,
	question   TEXT NOT NULL,
	variant_a  TEXT NOT NULL,
	variant_b  TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'other',
	source_url TEXT NOT NULL DEFAULT '',
	votes_a    BIGINT NOT NULL DEFAULT 0,
	votes_b    BIGINT NOT NULL DEFAULT 0,
	enrichment JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_entries_category ON entries(category);
CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at DESC);
`

const postgresEntryColumns = `id, title, question, variant_a, variant_b, category, source_url,
	votes_a, votes_b, COALESCE(enrichment::text, ''), created_at, updated_at`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveCandidates inserts records as new entries in one transaction.
func (s *PostgresStore) SaveCandidates(ctx context.Context, records []model.CandidateRecord) ([]model.Entry, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin save candidates")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	entries := make([]model.Entry, 0, len(records))
	for _, rec := range records {
		e := candidateEntry(uuid.New().String(), rec)
		e.CreatedAt, e.UpdatedAt = now, now
		_, err := tx.Exec(ctx,
			`INSERT INTO entries (id, title, question, variant_a, variant_b, category, source_url, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ID, rec.Title, rec.Question, rec.VariantA, rec.VariantB, string(rec.Category), rec.SourceURL, now, now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: insert entry %q", rec.Title)
		}
		entries = append(entries, e)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit save candidates")
	}
	return entries, nil
}

// GetEntry returns one entry by ID.
func (s *PostgresStore) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresEntryColumns+` FROM entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: entry %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get entry %s", id)
	}
	return e, nil
}

// ListEntries returns entries newest first.
func (s *PostgresStore) ListEntries(ctx context.Context, filter EntryFilter) ([]model.Entry, error) {
	query := `SELECT ` + postgresEntryColumns + ` FROM entries WHERE 1=1`
	var args []any

	if filter.Category != "" {
		args = append(args, string(filter.Category))
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.MissingEnrichment {
		query += ` AND enrichment IS NULL`
	}
	args = append(args, listLimit(filter))
	query += fmt.Sprintf(` ORDER BY created_at DESC, title LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list entries")
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan entry")
		}
		entries = append(entries, *e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list entries iterate")
}

// Titles returns up to limit entry titles, newest first. A non-positive
// limit returns every title.
func (s *PostgresStore) Titles(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT title FROM entries ORDER BY created_at DESC, title`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list titles")
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "postgres: scan title")
		}
		titles = append(titles, t)
	}
	return titles, eris.Wrap(rows.Err(), "postgres: list titles iterate")
}

// SaveEnrichment stores rec on the entry, replacing any earlier enrichment.
func (s *PostgresStore) SaveEnrichment(ctx context.Context, id string, rec model.EnrichmentRecord) error {
	data, err := marshalEnrichment(rec)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE entries SET enrichment = $1::jsonb, updated_at = $2 WHERE id = $3`,
		data, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save enrichment %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: entry %s", id)
	}
	return nil
}

// RecordVote increments one side and returns both counters.
func (s *PostgresStore) RecordVote(ctx context.Context, id string, side model.VoteSide) (Tally, error) {
	col, err := voteColumn(side)
	if err != nil {
		return Tally{}, err
	}

	var t Tally
	err = s.pool.QueryRow(ctx,
		`UPDATE entries SET `+col+` = `+col+` + 1, updated_at = $1 WHERE id = $2 RETURNING votes_a, votes_b`,
		time.Now().UTC(), id,
	).Scan(&t.VotesA, &t.VotesB)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tally{}, eris.Wrapf(ErrNotFound, "postgres: entry %s", id)
	}
	if err != nil {
		return Tally{}, eris.Wrapf(err, "postgres: record vote %s", id)
	}
	return t, nil
}
