// Package store keeps a history of processed claims in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/claimflow/internal/model"
)

// ErrNotFound is returned by Get for an unknown id
var ErrNotFound = errors.New("claim result not found")

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 50

// Store persists ClaimResults
type Store struct {
	db *sql.DB
}

// QueryOptions filters List
type QueryOptions struct {
	Route model.Route // empty matches every route
	Limit int
}

// Open opens or creates the database at path and ensures the schema exists
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS claims (
			id TEXT PRIMARY KEY,
			source TEXT,
			content_hash TEXT,
			processed_at TEXT NOT NULL,
			route TEXT NOT NULL,
			priority INTEGER NOT NULL,
			reasoning TEXT,
			missing_fields TEXT,
			inconsistencies TEXT,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_route ON claims(route)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_content_hash ON claims(content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_processed_at ON claims(processed_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// Save inserts res, replacing any earlier result with the same id.
// contentHash identifies the source document text.
func (s *Store) Save(ctx context.Context, res *model.ClaimResult, contentHash string) error {
	if res == nil || res.ID == "" {
		return errors.New("save claim result: missing id")
	}

	record, err := json.Marshal(res.ExtractedFields)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	missing, err := json.Marshal(nonNil(res.MissingFields))
	if err != nil {
		return fmt.Errorf("marshal missing fields: %w", err)
	}
	issues, err := json.Marshal(nonNil(res.Inconsistencies))
	if err != nil {
		return fmt.Errorf("marshal inconsistencies: %w", err)
	}

	processedAt := res.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO claims (id, source, content_hash, processed_at, route, priority, reasoning, missing_fields, inconsistencies, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			content_hash = excluded.content_hash,
			processed_at = excluded.processed_at,
			route = excluded.route,
			priority = excluded.priority,
			reasoning = excluded.reasoning,
			missing_fields = excluded.missing_fields,
			inconsistencies = excluded.inconsistencies,
			record = excluded.record`,
		res.ID, res.Source, contentHash, processedAt.UTC().Format(time.RFC3339Nano),
		string(res.RecommendedRoute), res.Priority, res.Reasoning,
		string(missing), string(issues), string(record),
	)
	if err != nil {
		return fmt.Errorf("upsert claim %s: %w", res.ID, err)
	}

	return tx.Commit()
}

const selectColumns = `SELECT id, source, processed_at, route, priority, reasoning, missing_fields, inconsistencies, record FROM claims`

// Get returns the stored result with id, or ErrNotFound
func (s *Store) Get(ctx context.Context, id string) (*model.ClaimResult, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	res, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// List returns stored results, newest first
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]model.ClaimResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := selectColumns
	var args []any
	if opts.Route != "" {
		query += ` WHERE route = ?`
		args = append(args, string(opts.Route))
	}
	query += ` ORDER BY processed_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var results []model.ClaimResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return results, nil
}

// FindByContentHash returns the newest result for a document, or ErrNotFound
func (s *Store) FindByContentHash(ctx context.Context, hash string) (*model.ClaimResult, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE content_hash = ? ORDER BY processed_at DESC LIMIT 1`, hash)
	res, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: content %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CountByRoute returns the number of stored results per route
func (s *Store) CountByRoute(ctx context.Context) (map[model.Route]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT route, count(*) FROM claims GROUP BY route`)
	if err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Route]int)
	for rows.Next() {
		var route string
		var n int
		if err := rows.Scan(&route, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[model.Route(route)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*model.ClaimResult, error) {
	var (
		res                     model.ClaimResult
		source, reasoning       sql.NullString
		processedAt, route      string
		missing, issues, record sql.NullString
	)

	err := row.Scan(&res.ID, &source, &processedAt, &route, &res.Priority, &reasoning, &missing, &issues, &record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan claim: %w", err)
	}

	res.Source = source.String
	res.Reasoning = reasoning.String
	res.RecommendedRoute = model.Route(route)

	if t, err := time.Parse(time.RFC3339Nano, processedAt); err == nil {
		res.ProcessedAt = t
	}

	res.MissingFields = []string{}
	if missing.Valid && missing.String != "" {
		if err := json.Unmarshal([]byte(missing.String), &res.MissingFields); err != nil {
			return nil, fmt.Errorf("decode missing fields of %s: %w", res.ID, err)
		}
	}
	if issues.Valid && issues.String != "" {
		if err := json.Unmarshal([]byte(issues.String), &res.Inconsistencies); err != nil {
			return nil, fmt.Errorf("decode inconsistencies of %s: %w", res.ID, err)
		}
		if len(res.Inconsistencies) == 0 {
			res.Inconsistencies = nil
		}
	}
	if record.Valid {
		if err := json.Unmarshal([]byte(record.String), &res.ExtractedFields); err != nil {
			return nil, fmt.Errorf("decode record of %s: %w", res.ID, err)
		}
	}

	return &res, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
