package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/kinetic/internal/db"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

// SnapshotStore keeps snapshot documents in app_snapshots and mirrors every
// ledger entry it has seen into the append-only ledger_entries table.
type SnapshotStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
	now    func() time.Time
}

func NewSnapshotStore(db *sql.DB, writer *dbpkg.Worker) *SnapshotStore {
	return &SnapshotStore{db: db, writer: writer, now: func() time.Time { return time.Now().UTC() }}
}

func (s *SnapshotStore) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
SELECT data FROM app_snapshots WHERE id = ?;
`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return data, nil
}

func (s *SnapshotStore) Save(ctx context.Context, id string, data []byte) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("save snapshot: empty id")
	}
	snap, err := store.Decode(data)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	nowMs := s.now().UnixMilli()
	compressed := 0
	if store.IsCompressed(data) {
		compressed = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO app_snapshots(id, data, compressed, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  data = excluded.data,
  compressed = excluded.compressed,
  updated_at_ms = excluded.updated_at_ms;
`, id, data, compressed, nowMs); err != nil {
			return fmt.Errorf("save snapshot %s: upsert: %w", id, err)
		}
		return mirrorEntries(ctx, tx, id, snap.Ledger)
	})
}

// mirrorEntries inserts entries not yet present. Must be called inside an
// existing transaction.
func mirrorEntries(ctx context.Context, tx *sql.Tx, snapshotID string, entries []types.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO ledger_entries(entry_id, snapshot_id, ts_ms, type, message)
VALUES (?, ?, ?, ?, ?);
`)
	if err != nil {
		return fmt.Errorf("mirror ledger: prepare: %w", err)
	}
	defer stmt.Close()

	// Snapshots list entries newest first; insert oldest first so rowid
	// order follows time.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if _, err := stmt.ExecContext(ctx, e.ID, snapshotID, e.Timestamp, string(e.Type), e.Message); err != nil {
			return fmt.Errorf("mirror ledger entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// LedgerEntries returns up to limit mirrored entries for the snapshot,
// newest first. A limit <= 0 returns all of them.
func (s *SnapshotStore) LedgerEntries(ctx context.Context, snapshotID string, limit int) ([]types.LedgerEntry, error) {
	q := `
SELECT entry_id, ts_ms, type, message
FROM ledger_entries
WHERE snapshot_id = ?
ORDER BY ts_ms DESC, rowid DESC`
	args := []any{snapshotID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q+";", args...)
	if err != nil {
		return nil, fmt.Errorf("LedgerEntries query: %w", err)
	}
	defer rows.Close()

	var out []types.LedgerEntry
	for rows.Next() {
		var (
			e    types.LedgerEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &kind, &e.Message); err != nil {
			return nil, fmt.Errorf("LedgerEntries scan: %w", err)
		}
		e.Type = types.EventType(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
