package sqlite_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/BrandonDHaskell/kinetic/internal/db"
)

// openTestDB returns an in-memory SQLite database with the production
// PRAGMAs and schema. It is closed when the test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := "test_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.OpenDSN(context.Background(), db.MemoryDSN(name))
	if err != nil {
		t.Fatalf("openTestDB: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed when the test
// finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}
