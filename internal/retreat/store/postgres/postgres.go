// Package postgres persists retreats in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retiro/internal/retreat/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/sentinel"
	"retiro/pkg/platform/tx"
)

// Store is the PostgreSQL-backed retreat store.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, retreat *models.Retreat) error {
	const query = `
		INSERT INTO retreats (id, name, edition, status, starts_on, ends_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		retreat.ID.String(), retreat.Name, retreat.Edition, string(retreat.Status),
		retreat.StartsOn, retreat.EndsOn, retreat.CreatedAt, retreat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create retreat: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, retreatID id.RetreatID) (*models.Retreat, error) {
	const query = `
		SELECT id, name, edition, status, starts_on, ends_on, created_at, updated_at
		FROM retreats
		WHERE id = $1
	`
	row := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, retreatID.String())

	var retreat models.Retreat
	var rawID, rawStatus string
	err := row.Scan(&rawID, &retreat.Name, &retreat.Edition, &rawStatus,
		&retreat.StartsOn, &retreat.EndsOn, &retreat.CreatedAt, &retreat.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get retreat: %w", err)
	}
	parsed, err := id.ParseRetreatID(rawID)
	if err != nil {
		return nil, fmt.Errorf("get retreat: %w", err)
	}
	retreat.ID = parsed
	retreat.Status = models.Status(rawStatus)
	return &retreat, nil
}

func (s *Store) Update(ctx context.Context, retreat *models.Retreat) error {
	const query = `
		UPDATE retreats
		SET name = $2, edition = $3, status = $4, starts_on = $5, ends_on = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		retreat.ID.String(), retreat.Name, retreat.Edition, string(retreat.Status),
		retreat.StartsOn, retreat.EndsOn, retreat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update retreat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update retreat: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.Retreat, error) {
	const query = `
		SELECT id, name, edition, status, starts_on, ends_on, created_at, updated_at
		FROM retreats
		ORDER BY edition DESC
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list retreats: %w", err)
	}
	defer rows.Close()

	var out []models.Retreat
	for rows.Next() {
		var retreat models.Retreat
		var rawID, rawStatus string
		if err := rows.Scan(&rawID, &retreat.Name, &retreat.Edition, &rawStatus,
			&retreat.StartsOn, &retreat.EndsOn, &retreat.CreatedAt, &retreat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list retreats: %w", err)
		}
		parsed, err := id.ParseRetreatID(rawID)
		if err != nil {
			return nil, fmt.Errorf("list retreats: %w", err)
		}
		retreat.ID = parsed
		retreat.Status = models.Status(rawStatus)
		out = append(out, retreat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list retreats: %w", err)
	}
	return out, nil
}
