package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path string // e.g. "./data/kinetic.db"
	Env  string // "dev" | "prod"
}

// pragmas applied to every connection: foreign keys on, WAL journal,
// NORMAL sync and a busy timeout so a second process waits instead of
// failing with SQLITE_BUSY.
const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

// FileDSN is the modernc.org/sqlite DSN for an on-disk database.
func FileDSN(path string) string {
	return fmt.Sprintf("file:%s?%s", path, pragmas)
}

// MemoryDSN names a private in-memory database. The shared cache keeps it
// alive for as long as the pool holds a connection.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", name, pragmas)
}

func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/kinetic.db"
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	return OpenDSN(ctx, FileDSN(cfg.Path))
}

// OpenDSN opens a single-connection pool on dsn, pings it and applies the
// embedded migrations.
func OpenDSN(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// One connection: every write already funnels through Worker.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
