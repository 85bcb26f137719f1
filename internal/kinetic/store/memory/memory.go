package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/store"
)

type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

func (s *Store) Load(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *Store) Save(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = append([]byte(nil), data...)
	return nil
}
