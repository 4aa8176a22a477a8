// Package postgres persists the roster aggregates. Stores are pure I/O; all
// rule evaluation lives in the engine. Every method resolves its querier
// through pkg/platform/tx so the same store works inside and outside the
// engine's serializable transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
	"retiro/pkg/platform/sentinel"
	"retiro/pkg/platform/tx"
)

// StateStore persists per-kind roster state rows.
type StateStore struct {
	db *sql.DB
}

func NewStateStore(db *sql.DB) *StateStore {
	return &StateStore{db: db}
}

func (s *StateStore) Get(ctx context.Context, kind models.Kind, retreatID id.RetreatID) (*models.State, error) {
	const query = `
		SELECT retreat_id, kind, version, locked
		FROM roster_states
		WHERE retreat_id = $1 AND kind = $2
	`
	var state models.State
	var rawRetreat, rawKind string
	err := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, retreatID.String(), string(kind)).
		Scan(&rawRetreat, &rawKind, &state.Version, &state.Locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get roster state: %w", err)
	}
	parsed, err := id.ParseRetreatID(rawRetreat)
	if err != nil {
		return nil, fmt.Errorf("get roster state: %w", err)
	}
	state.RetreatID = parsed
	state.Kind = models.Kind(rawKind)
	return &state, nil
}

// BumpVersion increments the optimistic counter, guarded by the version the
// engine read at the start of the transaction. Zero rows affected means a
// concurrent writer won.
func (s *StateStore) BumpVersion(ctx context.Context, kind models.Kind, retreatID id.RetreatID, from int64) error {
	const query = `
		UPDATE roster_states
		SET version = version + 1
		WHERE retreat_id = $1 AND kind = $2 AND version = $3
	`
	result, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, retreatID.String(), string(kind), from)
	if err != nil {
		return fmt.Errorf("bump roster version: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump roster version: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *StateStore) SetLocked(ctx context.Context, kind models.Kind, retreatID id.RetreatID, locked bool) error {
	const query = `
		UPDATE roster_states
		SET locked = $3
		WHERE retreat_id = $1 AND kind = $2
	`
	result, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, retreatID.String(), string(kind), locked)
	if err != nil {
		return fmt.Errorf("set roster lock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set roster lock: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// SeedAll inserts version-0 unlocked states for every kind. The retreat
// module calls it when a retreat is created.
func (s *StateStore) SeedAll(ctx context.Context, retreatID id.RetreatID) error {
	const query = `
		INSERT INTO roster_states (retreat_id, kind, version, locked)
		VALUES ($1, $2, 0, FALSE)
		ON CONFLICT (retreat_id, kind) DO NOTHING
	`
	for _, kind := range []models.Kind{models.KindFamily, models.KindTent, models.KindService} {
		if _, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, retreatID.String(), string(kind)); err != nil {
			return fmt.Errorf("seed roster state %s: %w", kind, err)
		}
	}
	return nil
}
