// Package service implements registration lifecycle operations for both
// sides of a retreat: participants and the serving team.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"retiro/internal/registration/models"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/sentinel"
	"retiro/pkg/requestcontext"
)

// ParticipantStore persists participant registrations.
type ParticipantStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	Get(ctx context.Context, regID id.MemberID) (*models.Registration, error)
	Update(ctx context.Context, reg *models.Registration) error
	ListByRetreat(ctx context.Context, retreatID id.RetreatID) ([]models.Registration, error)
}

// ServerStore persists service-team registrations.
type ServerStore interface {
	Create(ctx context.Context, reg *models.ServiceRegistration) error
	Get(ctx context.Context, regID id.MemberID) (*models.ServiceRegistration, error)
	Update(ctx context.Context, reg *models.ServiceRegistration) error
	ListByRetreat(ctx context.Context, retreatID id.RetreatID) ([]models.ServiceRegistration, error)
}

// Service manages registrations.
type Service struct {
	participants ParticipantStore
	servers      ServerStore
	logger       *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the registration service.
func New(participants ParticipantStore, servers ServerStore, opts ...Option) (*Service, error) {
	if participants == nil {
		return nil, fmt.Errorf("participant store is required")
	}
	if servers == nil {
		return nil, fmt.Errorf("server store is required")
	}
	s := &Service{participants: participants, servers: servers, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput carries the caller-supplied registration fields.
type RegisterInput struct {
	RetreatID id.RetreatID
	Name      string
	Surname   string
	Gender    models.Gender
	City      string
}

// RegisterParticipant creates a pending participant registration.
func (s *Service) RegisterParticipant(ctx context.Context, input RegisterInput) (*models.Registration, error) {
	reg, err := models.NewRegistration(input.RetreatID, input.Name, input.Surname, input.Gender, input.City, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.participants.Create(ctx, reg); err != nil {
		return nil, translateStoreErr(err)
	}
	s.logger.InfoContext(ctx, "participant registered",
		"registration_id", reg.ID, "retreat_id", reg.RetreatID)
	return reg, nil
}

// RegisterServer creates an active service-team registration.
func (s *Service) RegisterServer(ctx context.Context, input RegisterInput) (*models.ServiceRegistration, error) {
	reg, err := models.NewServiceRegistration(input.RetreatID, input.Name, input.Surname, input.Gender, input.City, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.servers.Create(ctx, reg); err != nil {
		return nil, translateStoreErr(err)
	}
	s.logger.InfoContext(ctx, "server registered",
		"registration_id", reg.ID, "retreat_id", reg.RetreatID)
	return reg, nil
}

// GetParticipant returns one participant registration.
func (s *Service) GetParticipant(ctx context.Context, regID id.MemberID) (*models.Registration, error) {
	reg, err := s.participants.Get(ctx, regID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return reg, nil
}

// ListParticipants returns every participant registration of a retreat.
func (s *Service) ListParticipants(ctx context.Context, retreatID id.RetreatID) ([]models.Registration, error) {
	regs, err := s.participants.ListByRetreat(ctx, retreatID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return regs, nil
}

// ListServers returns every service registration of a retreat.
func (s *Service) ListServers(ctx context.Context, retreatID id.RetreatID) ([]models.ServiceRegistration, error) {
	regs, err := s.servers.ListByRetreat(ctx, retreatID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return regs, nil
}

// Confirm transitions a pending participant registration to confirmed,
// making it roster-eligible.
func (s *Service) Confirm(ctx context.Context, regID id.MemberID) (*models.Registration, error) {
	return s.transitionParticipant(ctx, regID,
		func(r *models.Registration) error { return r.CanConfirm() },
		func(r *models.Registration) { r.ApplyConfirm(requestcontext.Now(ctx)) })
}

// Cancel cancels a participant registration and disables it.
func (s *Service) Cancel(ctx context.Context, regID id.MemberID) (*models.Registration, error) {
	return s.transitionParticipant(ctx, regID,
		func(r *models.Registration) error { return r.CanCancel() },
		func(r *models.Registration) { r.ApplyCancel(requestcontext.Now(ctx)) })
}

// MarkPaid transitions a confirmed registration to paid. The payment module
// calls this inside its recording transaction.
func (s *Service) MarkPaid(ctx context.Context, regID id.MemberID) (*models.Registration, error) {
	return s.transitionParticipant(ctx, regID,
		func(r *models.Registration) error { return r.CanMarkPaid() },
		func(r *models.Registration) { r.ApplyMarkPaid(requestcontext.Now(ctx)) })
}

// DeactivateServer takes a volunteer off the serving team.
func (s *Service) DeactivateServer(ctx context.Context, regID id.MemberID) (*models.ServiceRegistration, error) {
	return s.transitionServer(ctx, regID,
		func(r *models.ServiceRegistration) error { return r.CanDeactivate() },
		func(r *models.ServiceRegistration) { r.ApplyDeactivation(requestcontext.Now(ctx)) })
}

// ReactivateServer brings a volunteer back.
func (s *Service) ReactivateServer(ctx context.Context, regID id.MemberID) (*models.ServiceRegistration, error) {
	return s.transitionServer(ctx, regID,
		func(r *models.ServiceRegistration) error { return r.CanReactivate() },
		func(r *models.ServiceRegistration) { r.ApplyReactivation(requestcontext.Now(ctx)) })
}

func (s *Service) transitionParticipant(ctx context.Context, regID id.MemberID, can func(*models.Registration) error, apply func(*models.Registration)) (*models.Registration, error) {
	reg, err := s.participants.Get(ctx, regID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if err := can(reg); err != nil {
		return nil, err
	}
	apply(reg)
	if err := s.participants.Update(ctx, reg); err != nil {
		return nil, translateStoreErr(err)
	}
	return reg, nil
}

func (s *Service) transitionServer(ctx context.Context, regID id.MemberID, can func(*models.ServiceRegistration) error, apply func(*models.ServiceRegistration)) (*models.ServiceRegistration, error) {
	reg, err := s.servers.Get(ctx, regID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if err := can(reg); err != nil {
		return nil, err
	}
	apply(reg)
	if err := s.servers.Update(ctx, reg); err != nil {
		return nil, translateStoreErr(err)
	}
	return reg, nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent edit detected, retry the operation")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access registration store")
	}
}
