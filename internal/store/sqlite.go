package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/versus-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "versus.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps the pragmas below in effect and serializes writers.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	question   TEXT NOT NULL,
	variant_a  TEXT NOT NULL,
	variant_b  TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'other',
	source_url TEXT NOT NULL DEFAULT '',
	votes_a    INTEGER NOT NULL DEFAULT 0,
	votes_b    INTEGER NOT NULL DEFAULT 0,
	enrichment TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_entries_category ON entries(category);
CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
`

const sqliteEntryColumns = `id, title, question, variant_a, variant_b, category, source_url,
	votes_a, votes_b, COALESCE(enrichment, ''), created_at, updated_at`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCandidates inserts records as new entries in one transaction.
func (s *SQLiteStore) SaveCandidates(ctx context.Context, records []model.CandidateRecord) ([]model.Entry, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save candidates")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	entries := make([]model.Entry, 0, len(records))
	for _, rec := range records {
		e := candidateEntry(uuid.New().String(), rec)
		e.CreatedAt, e.UpdatedAt = now, now
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries (id, title, question, variant_a, variant_b, category, source_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, rec.Title, rec.Question, rec.VariantA, rec.VariantB, string(rec.Category), rec.SourceURL, now, now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert entry %q", rec.Title)
		}
		entries = append(entries, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit save candidates")
	}
	return entries, nil
}

// GetEntry returns one entry by ID.
func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteEntryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: entry %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get entry %s", id)
	}
	return e, nil
}

// ListEntries returns entries newest first.
func (s *SQLiteStore) ListEntries(ctx context.Context, filter EntryFilter) ([]model.Entry, error) {
	query := `SELECT ` + sqliteEntryColumns + ` FROM entries WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.MissingEnrichment {
		query += ` AND enrichment IS NULL`
	}
	query += ` ORDER BY created_at DESC, title LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list entries")
	}
	defer rows.Close() //nolint:errcheck

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entry")
		}
		entries = append(entries, *e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list entries iterate")
}

// Titles returns up to limit entry titles, newest first.
func (s *SQLiteStore) Titles(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM entries ORDER BY created_at DESC, title LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list titles")
	}
	defer rows.Close() //nolint:errcheck

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan title")
		}
		titles = append(titles, t)
	}
	return titles, eris.Wrap(rows.Err(), "sqlite: list titles iterate")
}

// SaveEnrichment stores rec on the entry, replacing any earlier enrichment.
func (s *SQLiteStore) SaveEnrichment(ctx context.Context, id string, rec model.EnrichmentRecord) error {
	data, err := marshalEnrichment(rec)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET enrichment = ?, updated_at = ? WHERE id = ?`,
		data, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save enrichment %s", id)
	}
	return checkRowsAffected(res, id)
}

// RecordVote increments one side and returns both counters.
func (s *SQLiteStore) RecordVote(ctx context.Context, id string, side model.VoteSide) (Tally, error) {
	col, err := voteColumn(side)
	if err != nil {
		return Tally{}, err
	}

	var t Tally
	err = s.db.QueryRowContext(ctx,
		`UPDATE entries SET `+col+` = `+col+` + 1, updated_at = ? WHERE id = ? RETURNING votes_a, votes_b`,
		time.Now().UTC(), id,
	).Scan(&t.VotesA, &t.VotesB)
	if errors.Is(err, sql.ErrNoRows) {
		return Tally{}, eris.Wrapf(ErrNotFound, "sqlite: entry %s", id)
	}
	if err != nil {
		return Tally{}, eris.Wrapf(err, "sqlite: record vote %s", id)
	}
	return t, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "entry %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*model.Entry, error) {
	var (
		e          model.Entry
		category   string
		enrichment string
	)
	err := row.Scan(&e.ID, &e.Title, &e.Question, &e.VariantA, &e.VariantB, &category, &e.SourceURL,
		&e.VotesA, &e.VotesB, &enrichment, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Category = model.ParseCategory(category)
	if e.Enrichment, err = unmarshalEnrichment(enrichment); err != nil {
		return nil, err
	}
	return &e, nil
}
