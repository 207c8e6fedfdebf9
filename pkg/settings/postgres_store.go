package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on the core_store table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed settings store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM core_store WHERE type = $1 AND name = $2 AND key = $3`,
		key.Type, key.Name, key.Key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key.Key, err)
	}
	return json.RawMessage(value), nil
}

func (s *PostgresStore) Set(ctx context.Context, key Key, value json.RawMessage) error {
	query := `
		INSERT INTO core_store (type, name, key, value, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (type, name, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := s.pool.Exec(ctx, query, key.Type, key.Name, key.Key, []byte(value)); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key.Key, err)
	}
	return nil
}
