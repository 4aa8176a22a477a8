// Package memory provides in-memory registration stores for unit tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"retiro/internal/registration/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/sentinel"
)

// ParticipantStore keeps participant registrations in a map.
type ParticipantStore struct {
	mu   sync.Mutex
	regs map[id.MemberID]models.Registration
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{regs: make(map[id.MemberID]models.Registration)}
}

func (s *ParticipantStore) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.regs[reg.ID]; exists {
		return sentinel.ErrConflict
	}
	s.regs[reg.ID] = *reg
	return nil
}

func (s *ParticipantStore) Get(_ context.Context, regID id.MemberID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[regID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &reg, nil
}

func (s *ParticipantStore) Update(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.regs[reg.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.regs[reg.ID] = *reg
	return nil
}

func (s *ParticipantStore) ListByRetreat(_ context.Context, retreatID id.RetreatID) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Registration
	for _, reg := range s.regs {
		if reg.RetreatID == retreatID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Surname < out[j].Surname })
	return out, nil
}

// ServerStore keeps service-team registrations in a map.
type ServerStore struct {
	mu   sync.Mutex
	regs map[id.MemberID]models.ServiceRegistration
}

func NewServerStore() *ServerStore {
	return &ServerStore{regs: make(map[id.MemberID]models.ServiceRegistration)}
}

func (s *ServerStore) Create(_ context.Context, reg *models.ServiceRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.regs[reg.ID]; exists {
		return sentinel.ErrConflict
	}
	s.regs[reg.ID] = *reg
	return nil
}

func (s *ServerStore) Get(_ context.Context, regID id.MemberID) (*models.ServiceRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[regID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &reg, nil
}

func (s *ServerStore) Update(_ context.Context, reg *models.ServiceRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.regs[reg.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.regs[reg.ID] = *reg
	return nil
}

func (s *ServerStore) ListByRetreat(_ context.Context, retreatID id.RetreatID) ([]models.ServiceRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ServiceRegistration
	for _, reg := range s.regs {
		if reg.RetreatID == retreatID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Surname < out[j].Surname })
	return out, nil
}
