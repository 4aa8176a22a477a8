// Package memory provides the in-memory payment store for unit tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"retiro/internal/payment/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/sentinel"
)

// Store keeps payments in a map.
type Store struct {
	mu       sync.Mutex
	payments map[id.PaymentID]models.Payment
}

func New() *Store {
	return &Store{payments: make(map[id.PaymentID]models.Payment)}
}

func (s *Store) Create(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.ID]; exists {
		return sentinel.ErrConflict
	}
	s.payments[payment.ID] = *payment
	return nil
}

func (s *Store) ListByRegistration(_ context.Context, regID id.MemberID) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.payments {
		if p.RegistrationID == regID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}
