package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/sentinel"
	"retiro/pkg/platform/tx"
)

// UnitStore persists roster units (families, tents, service spaces) in one
// table discriminated by kind.
type UnitStore struct {
	db *sql.DB
}

func NewUnitStore(db *sql.DB) *UnitStore {
	return &UnitStore{db: db}
}

func (s *UnitStore) Create(ctx context.Context, unit *models.Unit) error {
	const query = `
		INSERT INTO roster_units (id, retreat_id, kind, name, category, min_people, max_people, locked, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		unit.ID.String(), unit.RetreatID.String(), string(unit.Kind), unit.Name,
		string(unit.Category), unit.MinPeople, unit.MaxPeople, unit.Locked, unit.Position,
	)
	if err != nil {
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}

func (s *UnitStore) ListByRetreat(ctx context.Context, kind models.Kind, retreatID id.RetreatID) ([]models.Unit, error) {
	const query = `
		SELECT id, retreat_id, kind, name, category, min_people, max_people, locked, position
		FROM roster_units
		WHERE retreat_id = $1 AND kind = $2
		ORDER BY position, name
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, retreatID.String(), string(kind))
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("list units: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

func (s *UnitStore) SetLocked(ctx context.Context, kind models.Kind, retreatID id.RetreatID, unitID id.UnitID, locked bool) error {
	const query = `
		UPDATE roster_units
		SET locked = $4
		WHERE id = $1 AND kind = $2 AND retreat_id = $3
	`
	result, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, unitID.String(), string(kind), retreatID.String(), locked)
	if err != nil {
		return fmt.Errorf("set unit lock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set unit lock: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanUnit(rows *sql.Rows) (models.Unit, error) {
	var unit models.Unit
	var rawID, rawRetreat, rawKind, rawCategory string
	if err := rows.Scan(&rawID, &rawRetreat, &rawKind, &unit.Name, &rawCategory,
		&unit.MinPeople, &unit.MaxPeople, &unit.Locked, &unit.Position); err != nil {
		return models.Unit{}, err
	}
	unitID, err := id.ParseUnitID(rawID)
	if err != nil {
		return models.Unit{}, err
	}
	retreatID, err := id.ParseRetreatID(rawRetreat)
	if err != nil {
		return models.Unit{}, err
	}
	unit.ID = unitID
	unit.RetreatID = retreatID
	unit.Kind = models.Kind(rawKind)
	unit.Category = models.Gender(rawCategory)
	return unit, nil
}
