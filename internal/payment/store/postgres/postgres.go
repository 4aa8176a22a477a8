// Package postgres persists payments in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"retiro/internal/payment/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/tx"
)

// Store is the PostgreSQL-backed payment store.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, payment *models.Payment) error {
	const query = `
		INSERT INTO payments (id, registration_id, amount_cents, method, reference, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		payment.ID.String(), payment.RegistrationID.String(), payment.AmountCents,
		string(payment.Method), payment.Reference, payment.RecordedBy, payment.RecordedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *Store) ListByRegistration(ctx context.Context, regID id.MemberID) ([]models.Payment, error) {
	const query = `
		SELECT id, registration_id, amount_cents, method, reference, recorded_by, recorded_at
		FROM payments
		WHERE registration_id = $1
		ORDER BY recorded_at
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, regID.String())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		var payment models.Payment
		var rawID, rawReg, rawMethod string
		if err := rows.Scan(&rawID, &rawReg, &payment.AmountCents, &rawMethod,
			&payment.Reference, &payment.RecordedBy, &payment.RecordedAt); err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		paymentID, err := id.ParsePaymentID(rawID)
		if err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		registrationID, err := id.ParseMemberID(rawReg)
		if err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		payment.ID = paymentID
		payment.RegistrationID = registrationID
		payment.Method = models.Method(rawMethod)
		out = append(out, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}
