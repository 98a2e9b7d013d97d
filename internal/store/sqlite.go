package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const busyTimeoutMillis = 5000

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		code     TEXT NOT NULL,
		file_id  TEXT NOT NULL,
		cover_id TEXT,
		mode     TEXT NOT NULL,
		PRIMARY KEY (code, file_id)
	)`,
}

type sqliteStore struct {
	db *sql.DB
}

// openSQLite opens a SQLite database at the given path with WAL mode, a 5 s
// busy timeout, and a single connection (SQLite serialises writes).
func openSQLite(path string) (Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: create directory %s: %w", ErrUnavailable, dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: enable WAL: %w", ErrUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMillis)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: set busy_timeout: %w", ErrUnavailable, err)
	}

	return &sqliteStore{db: db}, nil
}

// Migrate creates or updates the schema to the latest version. All DDL uses
// IF NOT EXISTS, making migration idempotent.
func (s *sqliteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("%w: create schema_version: %w", ErrUnavailable, err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("%w: read schema version: %w", ErrUnavailable, err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrate: %w\nstatement: %s", ErrUnavailable, err, stmt)
		}
	}

	if _, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("%w: record schema version: %w", ErrUnavailable, err)
	}

	return nil
}

func (s *sqliteStore) Add(ctx context.Context, entry Entry) error {
	var cover sql.NullString
	if entry.CoverID != "" {
		cover = sql.NullString{String: entry.CoverID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movies (code, file_id, cover_id, mode)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (code, file_id) DO NOTHING`,
		entry.Code, entry.FileID, cover, entry.Mode,
	)
	if err != nil {
		return fmt.Errorf("%w: add entry: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *sqliteStore) List(ctx context.Context, code string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, file_id, cover_id, mode
		FROM movies
		WHERE code = ?
		ORDER BY file_id ASC`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %w", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var (
			entry Entry
			cover sql.NullString
		)
		if err := rows.Scan(&entry.Code, &entry.FileID, &cover, &entry.Mode); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %w", ErrUnavailable, err)
		}
		if cover.Valid {
			entry.CoverID = cover.String
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan rows: %w", ErrUnavailable, err)
	}

	return entries, nil
}
