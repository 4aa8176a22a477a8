// Package service answers kinship questions for the family composition
// rules and manages the declared pairs behind them.
package service

import (
	"context"
	"errors"
	"fmt"

	"retiro/internal/relationship/models"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/sentinel"
)

// Store persists relationship pairs.
type Store interface {
	Add(ctx context.Context, pair models.Pair) error
	Remove(ctx context.Context, pair models.Pair) error
	Exists(ctx context.Context, pair models.Pair) (bool, error)
}

// Service manages declared relationships. It implements the roster engine's
// RelationshipChecker port.
type Service struct {
	store Store
}

// New constructs the relationship service.
func New(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("relationship store is required")
	}
	return &Service{store: store}, nil
}

// Declare records a relationship; declaring it twice is a no-op.
func (s *Service) Declare(ctx context.Context, a, b id.MemberID, kind models.Kind) error {
	pair, err := models.NewPair(a, b, kind)
	if err != nil {
		return err
	}
	if err := s.store.Add(ctx, pair); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// Revoke removes a declared relationship.
func (s *Service) Revoke(ctx context.Context, a, b id.MemberID, kind models.Kind) error {
	pair, err := models.NewPair(a, b, kind)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, pair); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// AreSpouses reports whether a spouse pair is declared, in either order.
func (s *Service) AreSpouses(ctx context.Context, a, b id.MemberID) (bool, error) {
	return s.exists(ctx, a, b, models.KindSpouse)
}

// AreDirectRelatives reports whether a direct-relative pair is declared.
func (s *Service) AreDirectRelatives(ctx context.Context, a, b id.MemberID) (bool, error) {
	return s.exists(ctx, a, b, models.KindDirectRelative)
}

func (s *Service) exists(ctx context.Context, a, b id.MemberID, kind models.Kind) (bool, error) {
	pair, err := models.NewPair(a, b, kind)
	if err != nil {
		return false, err
	}
	ok, err := s.store.Exists(ctx, pair)
	if err != nil {
		return false, translateStoreErr(err)
	}
	return ok, nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "relationship not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access relationship store")
	}
}
