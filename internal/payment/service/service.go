// Package service records payments against participant registrations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"retiro/internal/payment/models"
	registrationmodels "retiro/internal/registration/models"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/sentinel"
	"retiro/pkg/requestcontext"
)

// Store persists payment rows.
type Store interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListByRegistration(ctx context.Context, regID id.MemberID) ([]models.Payment, error)
}

// Registrations is the slice of the registration service the payment module
// needs: the confirmed → paid transition.
type Registrations interface {
	MarkPaid(ctx context.Context, regID id.MemberID) (*registrationmodels.Registration, error)
}

// TxRunner bundles the payment insert and the status transition into one
// atomic unit of work.
type TxRunner interface {
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service records payments.
type Service struct {
	store         Store
	registrations Registrations
	tx            TxRunner
	logger        *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the payment service.
func New(store Store, registrations Registrations, txRunner TxRunner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("payment store is required")
	}
	if registrations == nil {
		return nil, fmt.Errorf("registration service is required")
	}
	if txRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	s := &Service{store: store, registrations: registrations, tx: txRunner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record persists a payment and transitions the registration to paid in the
// same transaction. A registration that cannot transition (already paid,
// cancelled, still pending) rejects the whole recording.
func (s *Service) Record(ctx context.Context, regID id.MemberID, amountCents int64, method models.Method, reference string) (*models.Payment, error) {
	payment, err := models.New(regID, amountCents, method, reference,
		requestcontext.ActorID(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunSerializable(ctx, func(txCtx context.Context) error {
		if _, err := s.registrations.MarkPaid(txCtx, regID); err != nil {
			return err
		}
		return s.store.Create(txCtx, payment)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.logger.InfoContext(ctx, "payment recorded",
		"payment_id", payment.ID,
		"registration_id", regID,
		"amount_cents", amountCents,
		"method", method,
	)
	return payment, nil
}

// ListByRegistration returns every payment recorded against a registration.
func (s *Service) ListByRegistration(ctx context.Context, regID id.MemberID) ([]models.Payment, error) {
	payments, err := s.store.ListByRegistration(ctx, regID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return payments, nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "payment not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent edit detected, retry the operation")
	default:
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access payment store")
	}
}
