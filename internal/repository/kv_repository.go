package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artgallery/server/internal/observability"
)

// SQLKeyValueStore implements KeyValueStore over the kv_store table.
// The same statements run on SQLite and PostgreSQL.
type SQLKeyValueStore struct {
	db     *sql.DB
	system string
}

// NewSQLKeyValueStore creates a store over an initialized database. system names the
// backend in spans ("sqlite" or "postgresql").
func NewSQLKeyValueStore(db *sql.DB, system string) *SQLKeyValueStore {
	return &SQLKeyValueStore{db: db, system: system}
}

func (s *SQLKeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := observability.StartStoreSpan(ctx, s.system, "Get", key)
	defer span.End()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (s *SQLKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := observability.StartStoreSpan(ctx, s.system, "Set", key)
	defer span.End()

	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`
	_, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC())
	observability.RecordError(span, err)
	return err
}

func (s *SQLKeyValueStore) Delete(ctx context.Context, key string) error {
	ctx, span := observability.StartStoreSpan(ctx, s.system, "Delete", key)
	defer span.End()

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	observability.RecordError(span, err)
	return err
}
