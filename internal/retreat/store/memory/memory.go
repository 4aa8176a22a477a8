// Package memory provides the in-memory retreat store used by unit tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"retiro/internal/retreat/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/sentinel"
)

// Store keeps retreats in a map.
type Store struct {
	mu       sync.Mutex
	retreats map[id.RetreatID]models.Retreat
}

func New() *Store {
	return &Store{retreats: make(map[id.RetreatID]models.Retreat)}
}

func (s *Store) Create(_ context.Context, retreat *models.Retreat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.retreats[retreat.ID]; exists {
		return sentinel.ErrConflict
	}
	s.retreats[retreat.ID] = *retreat
	return nil
}

func (s *Store) Get(_ context.Context, retreatID id.RetreatID) (*models.Retreat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	retreat, ok := s.retreats[retreatID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &retreat, nil
}

func (s *Store) Update(_ context.Context, retreat *models.Retreat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.retreats[retreat.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.retreats[retreat.ID] = *retreat
	return nil
}

func (s *Store) List(_ context.Context) ([]models.Retreat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Retreat, 0, len(s.retreats))
	for _, r := range s.retreats {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Edition > out[j].Edition })
	return out, nil
}
