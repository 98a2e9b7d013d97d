// Package store persists movie entries keyed by their share code.
package store

import (
	"context"
	"errors"
	"strings"
)

// Mode classifies the content set behind a code.
const (
	ModeSingle = "single"
	ModeSeries = "series"
)

// ErrUnavailable indicates the backing database could not be reached or a
// statement failed. Callers surface it to the user as a generic failure.
var ErrUnavailable = errors.New("store: unavailable")

// Entry is one storable content unit. FileID and CoverID are opaque
// references issued by Telegram; CoverID is empty for series episodes past
// the first.
type Entry struct {
	Code    string
	FileID  string
	CoverID string
	Mode    string
}

// Store is the durable mapping from a code to its ordered entries.
//
// Add is idempotent on (code, file_id): inserting a duplicate pair is a
// no-op, not an error. List returns entries ordered by file_id ascending and
// an empty slice for an unknown code.
type Store interface {
	Migrate(ctx context.Context) error
	Add(ctx context.Context, entry Entry) error
	List(ctx context.Context, code string) ([]Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open selects a backend by DSN shape: postgres:// and postgresql:// URLs go
// to the Postgres backend, anything else is treated as a SQLite file path.
func Open(dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return openPostgres(dsn)
	}
	return openSQLite(dsn)
}
