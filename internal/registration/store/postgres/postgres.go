// Package postgres persists registrations in PostgreSQL. The roster engine's
// member store reads the same tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retiro/internal/registration/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/sentinel"
	"retiro/pkg/platform/tx"
)

// ParticipantStore is the PostgreSQL-backed participant registration store.
type ParticipantStore struct {
	db *sql.DB
}

func NewParticipantStore(db *sql.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func (s *ParticipantStore) Create(ctx context.Context, reg *models.Registration) error {
	const query = `
		INSERT INTO registrations (id, retreat_id, name, surname, gender, city, status, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		reg.ID.String(), reg.RetreatID.String(), reg.Name, reg.Surname,
		string(reg.Gender), reg.City, string(reg.Status), reg.Enabled,
		reg.CreatedAt, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (s *ParticipantStore) Get(ctx context.Context, regID id.MemberID) (*models.Registration, error) {
	const query = `
		SELECT id, retreat_id, name, surname, gender, city, status, enabled, created_at, updated_at
		FROM registrations
		WHERE id = $1
	`
	row := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, regID.String())
	reg, err := scanRegistration(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (s *ParticipantStore) Update(ctx context.Context, reg *models.Registration) error {
	const query = `
		UPDATE registrations
		SET name = $2, surname = $3, gender = $4, city = $5, status = $6, enabled = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		reg.ID.String(), reg.Name, reg.Surname, string(reg.Gender), reg.City,
		string(reg.Status), reg.Enabled, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *ParticipantStore) ListByRetreat(ctx context.Context, retreatID id.RetreatID) ([]models.Registration, error) {
	const query = `
		SELECT id, retreat_id, name, surname, gender, city, status, enabled, created_at, updated_at
		FROM registrations
		WHERE retreat_id = $1
		ORDER BY surname, name
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, retreatID.String())
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list registrations: %w", err)
		}
		out = append(out, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

func scanRegistration(scan func(...any) error) (*models.Registration, error) {
	var reg models.Registration
	var rawID, rawRetreat, rawGender, rawStatus string
	err := scan(&rawID, &rawRetreat, &reg.Name, &reg.Surname, &rawGender, &reg.City,
		&rawStatus, &reg.Enabled, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	memberID, err := id.ParseMemberID(rawID)
	if err != nil {
		return nil, err
	}
	retreatID, err := id.ParseRetreatID(rawRetreat)
	if err != nil {
		return nil, err
	}
	reg.ID = memberID
	reg.RetreatID = retreatID
	reg.Gender = models.Gender(rawGender)
	reg.Status = models.Status(rawStatus)
	return &reg, nil
}

// ServerStore is the PostgreSQL-backed service-team registration store.
type ServerStore struct {
	db *sql.DB
}

func NewServerStore(db *sql.DB) *ServerStore {
	return &ServerStore{db: db}
}

func (s *ServerStore) Create(ctx context.Context, reg *models.ServiceRegistration) error {
	const query = `
		INSERT INTO service_registrations (id, retreat_id, name, surname, gender, city, status, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		reg.ID.String(), reg.RetreatID.String(), reg.Name, reg.Surname,
		string(reg.Gender), reg.City, string(reg.Status), reg.Enabled,
		reg.CreatedAt, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create service registration: %w", err)
	}
	return nil
}

func (s *ServerStore) Get(ctx context.Context, regID id.MemberID) (*models.ServiceRegistration, error) {
	const query = `
		SELECT id, retreat_id, name, surname, gender, city, status, enabled, created_at, updated_at
		FROM service_registrations
		WHERE id = $1
	`
	row := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, regID.String())
	reg, err := scanServiceRegistration(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service registration: %w", err)
	}
	return reg, nil
}

func (s *ServerStore) Update(ctx context.Context, reg *models.ServiceRegistration) error {
	const query = `
		UPDATE service_registrations
		SET name = $2, surname = $3, gender = $4, city = $5, status = $6, enabled = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		reg.ID.String(), reg.Name, reg.Surname, string(reg.Gender), reg.City,
		string(reg.Status), reg.Enabled, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update service registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update service registration: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *ServerStore) ListByRetreat(ctx context.Context, retreatID id.RetreatID) ([]models.ServiceRegistration, error) {
	const query = `
		SELECT id, retreat_id, name, surname, gender, city, status, enabled, created_at, updated_at
		FROM service_registrations
		WHERE retreat_id = $1
		ORDER BY surname, name
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, retreatID.String())
	if err != nil {
		return nil, fmt.Errorf("list service registrations: %w", err)
	}
	defer rows.Close()

	var out []models.ServiceRegistration
	for rows.Next() {
		reg, err := scanServiceRegistration(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list service registrations: %w", err)
		}
		out = append(out, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list service registrations: %w", err)
	}
	return out, nil
}

func scanServiceRegistration(scan func(...any) error) (*models.ServiceRegistration, error) {
	var reg models.ServiceRegistration
	var rawID, rawRetreat, rawGender, rawStatus string
	err := scan(&rawID, &rawRetreat, &reg.Name, &reg.Surname, &rawGender, &reg.City,
		&rawStatus, &reg.Enabled, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	memberID, err := id.ParseMemberID(rawID)
	if err != nil {
		return nil, err
	}
	retreatID, err := id.ParseRetreatID(rawRetreat)
	if err != nil {
		return nil, err
	}
	reg.ID = memberID
	reg.RetreatID = retreatID
	reg.Gender = models.Gender(rawGender)
	reg.Status = models.ServiceStatus(rawStatus)
	return &reg, nil
}
