package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver registration
	"github.com/pressly/goose/v3"

	"github.com/cinegate/cinegate/internal/store/migrations"
)

type postgresStore struct {
	db *sql.DB
}

// openPostgres opens a connection pool to the given Postgres DSN. Connectivity
// is not verified here; Migrate is the first call that touches the server.
func openPostgres(dsn string) (Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", ErrUnavailable, err)
	}
	return &postgresStore{db: db}, nil
}

// Migrate applies the embedded goose migrations.
func (s *postgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%w: set dialect: %w", ErrUnavailable, err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("%w: migrate: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *postgresStore) Add(ctx context.Context, entry Entry) error {
	var cover sql.NullString
	if entry.CoverID != "" {
		cover = sql.NullString{String: entry.CoverID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movies (code, file_id, cover_id, mode)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code, file_id) DO NOTHING`,
		entry.Code, entry.FileID, cover, entry.Mode,
	)
	if err != nil {
		return fmt.Errorf("%w: add entry: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *postgresStore) List(ctx context.Context, code string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, file_id, cover_id, mode
		FROM movies
		WHERE code = $1
		ORDER BY file_id ASC`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %w", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

func (s *postgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
