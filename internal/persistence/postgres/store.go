// Package postgres provides a Postgres-backed key-value store.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/observability"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// Store persists values as JSONB rows in kv_store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store on an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to url, applies the embedded migrations and returns the store.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Migrate applies every embedded migration in name order. Migrations are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		contents, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

// Get implements persistence.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		observability.RecordStoreError("postgres", "get")
		return nil, false, err
	}
	return value, true, nil
}

// Set implements persistence.Store.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const stmt = `INSERT INTO kv_store (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := s.pool.Exec(ctx, stmt, key, value); err != nil {
		observability.RecordStoreError("postgres", "set")
		return err
	}
	return nil
}

// Remove implements persistence.Store.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		observability.RecordStoreError("postgres", "remove")
		return err
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
