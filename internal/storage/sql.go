package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Dialect selects the placeholder style of a SQLStore.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// driverName is the name sqlx derives the bind style from.
func (d Dialect) driverName() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

// SQLStore keeps keys in the kv_store table created by the migrations. It
// serves both libSQL/SQLite and Postgres.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: sqlx.NewDb(db, dialect.driverName())}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind(`SELECT value FROM kv_store WHERE name = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO kv_store (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kv_store WHERE name = ?`), key); err != nil {
			return fmt.Errorf("deleting %q: %w", key, err)
		}
	}
	return nil
}

// Check satisfies health.Checker.
func (s *SQLStore) Check(ctx context.Context) error { return s.db.PingContext(ctx) }
