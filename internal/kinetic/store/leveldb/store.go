// Package leveldb keeps snapshot documents in an embedded LevelDB under the
// key "snapshot_<id>".
package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store"
)

type Store struct {
	db *leveldb.DB
}

func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func key(id string) []byte { return []byte("snapshot_" + id) }

func (s *Store) Load(_ context.Context, id string) ([]byte, error) {
	v, err := s.db.Get(key(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get %s: %w", id, err)
	}
	return v, nil
}

func (s *Store) Save(_ context.Context, id string, data []byte) error {
	if err := s.db.Put(key(id), data, nil); err != nil {
		return fmt.Errorf("leveldb put %s: %w", id, err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
