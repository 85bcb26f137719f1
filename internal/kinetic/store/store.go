// Package store defines where snapshot documents live and how they are
// encoded. Backends only move opaque bytes; Encode and Decode own the wire
// format.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

var (
	// ErrNotFound is returned by Load when no snapshot exists under the id.
	ErrNotFound = errors.New("snapshot not found")

	// ErrCorrupt is returned by Decode for bytes that are not a snapshot.
	ErrCorrupt = errors.New("corrupt snapshot")
)

// SnapshotStore persists whole snapshot documents keyed by id.
type SnapshotStore interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte) error
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	zenc, _ = zstd.NewWriter(nil)
	zdec, _ = zstd.NewReader(nil)
)

// Encode renders snap as JSON, zstd-compressed when compress is set.
func Encode(snap types.Snapshot, compress bool) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if !compress {
		return b, nil
	}
	return zenc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

// Decode parses a snapshot produced by Encode, compressed or not. Section
// presence and referential checks are left to ledger.Book.Import.
func Decode(data []byte) (types.Snapshot, error) {
	plain, err := Plain(data)
	if err != nil {
		return types.Snapshot{}, err
	}
	var snap types.Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snap, nil
}

// IsCompressed reports whether data starts with the zstd frame magic.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Plain returns the JSON form of data, decompressing it if needed.
func Plain(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	out, err := zdec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	return out, nil
}
