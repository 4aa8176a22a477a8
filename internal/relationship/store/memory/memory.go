// Package memory provides the in-memory relationship store for unit tests.
package memory

import (
	"context"
	"sync"

	"retiro/internal/relationship/models"
	"retiro/pkg/platform/sentinel"
)

// Store keeps declared pairs in a set.
type Store struct {
	mu    sync.Mutex
	pairs map[models.Pair]struct{}
}

func New() *Store {
	return &Store{pairs: make(map[models.Pair]struct{})}
}

func (s *Store) Add(_ context.Context, pair models.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[pair] = struct{}{}
	return nil
}

func (s *Store) Remove(_ context.Context, pair models.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pairs[pair]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.pairs, pair)
	return nil
}

func (s *Store) Exists(_ context.Context, pair models.Pair) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pairs[pair]
	return ok, nil
}
