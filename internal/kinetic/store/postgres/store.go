// Package postgres stores snapshot documents as JSONB rows.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/kinetic?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

type Store struct {
	db *sql.DB
}

// Open connects to dsn (defaultDSN when empty) and ensures the snapshot
// table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS app_snapshots (
		id TEXT PRIMARY KEY,
		data JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure app_snapshots table: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM app_snapshots WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot %s: %w", id, err)
	}
	return data, nil
}

// Save upserts the document. JSONB holds JSON only, so compressed input
// is stored decompressed.
func (s *Store) Save(ctx context.Context, id string, data []byte) error {
	plain, err := store.Plain(data)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO app_snapshots (id, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		id, string(plain)); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", id, err)
	}
	return nil
}

// DB exposes the underlying sql.DB for integration tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }
