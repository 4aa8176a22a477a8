// Package service implements retreat lifecycle operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"retiro/internal/retreat/models"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/sentinel"
	"retiro/pkg/requestcontext"
)

// Store persists retreats.
type Store interface {
	Create(ctx context.Context, retreat *models.Retreat) error
	Get(ctx context.Context, retreatID id.RetreatID) (*models.Retreat, error)
	Update(ctx context.Context, retreat *models.Retreat) error
	List(ctx context.Context) ([]models.Retreat, error)
}

// RosterSeeder initializes the three roster state rows of a new retreat.
type RosterSeeder interface {
	SeedAll(ctx context.Context, retreatID id.RetreatID) error
}

// TxRunner wraps retreat-plus-roster-state writes into one atomic unit.
type TxRunner interface {
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages retreats.
type Service struct {
	store  Store
	seeder RosterSeeder
	tx     TxRunner
	logger *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the retreat service.
func New(store Store, seeder RosterSeeder, txRunner TxRunner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("retreat store is required")
	}
	if seeder == nil {
		return nil, fmt.Errorf("roster seeder is required")
	}
	if txRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	s := &Service{store: store, seeder: seeder, tx: txRunner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateInput carries the caller-supplied retreat fields.
type CreateInput struct {
	Name     string
	Edition  int
	StartsOn time.Time
	EndsOn   time.Time
}

// Create persists a draft retreat and seeds the version-zero roster states
// for its three boards in the same transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Retreat, error) {
	retreat, err := models.New(input.Name, input.Edition, input.StartsOn, input.EndsOn, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunSerializable(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, retreat); err != nil {
			return err
		}
		return s.seeder.SeedAll(txCtx, retreat.ID)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.logger.InfoContext(ctx, "retreat created",
		"retreat_id", retreat.ID, "name", retreat.Name, "edition", retreat.Edition)
	return retreat, nil
}

// Get returns one retreat.
func (s *Service) Get(ctx context.Context, retreatID id.RetreatID) (*models.Retreat, error) {
	retreat, err := s.store.Get(ctx, retreatID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return retreat, nil
}

// List returns every retreat, newest edition first.
func (s *Service) List(ctx context.Context) ([]models.Retreat, error) {
	retreats, err := s.store.List(ctx)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return retreats, nil
}

// Open transitions a draft retreat to open.
func (s *Service) Open(ctx context.Context, retreatID id.RetreatID) (*models.Retreat, error) {
	return s.transition(ctx, retreatID,
		func(r *models.Retreat) error { return r.CanOpen() },
		func(r *models.Retreat) { r.ApplyOpen(requestcontext.Now(ctx)) })
}

// Close transitions an open retreat to closed.
func (s *Service) Close(ctx context.Context, retreatID id.RetreatID) (*models.Retreat, error) {
	return s.transition(ctx, retreatID,
		func(r *models.Retreat) error { return r.CanClose() },
		func(r *models.Retreat) { r.ApplyClose(requestcontext.Now(ctx)) })
}

func (s *Service) transition(ctx context.Context, retreatID id.RetreatID, can func(*models.Retreat) error, apply func(*models.Retreat)) (*models.Retreat, error) {
	var retreat *models.Retreat
	err := s.tx.RunSerializable(ctx, func(txCtx context.Context) error {
		var err error
		retreat, err = s.store.Get(txCtx, retreatID)
		if err != nil {
			return err
		}
		if err := can(retreat); err != nil {
			return err
		}
		apply(retreat)
		return s.store.Update(txCtx, retreat)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return retreat, nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "retreat not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent edit detected, retry the operation")
	default:
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access retreat store")
	}
}
