// Package postgres persists relationship pairs in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"retiro/internal/relationship/models"
	"retiro/pkg/platform/sentinel"
	"retiro/pkg/platform/tx"
)

// Store is the PostgreSQL-backed relationship store. Rows are stored with
// person_a < person_b; models.NewPair guarantees the order before we get here.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Add(ctx context.Context, pair models.Pair) error {
	const query = `
		INSERT INTO relationships (person_a, person_b, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		pair.PersonA.String(), pair.PersonB.String(), string(pair.Kind))
	if err != nil {
		return fmt.Errorf("add relationship: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, pair models.Pair) error {
	const query = `
		DELETE FROM relationships
		WHERE person_a = $1 AND person_b = $2 AND kind = $3
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		pair.PersonA.String(), pair.PersonB.String(), string(pair.Kind))
	if err != nil {
		return fmt.Errorf("remove relationship: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove relationship: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, pair models.Pair) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM relationships
			WHERE person_a = $1 AND person_b = $2 AND kind = $3
		)
	`
	var exists bool
	err := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query,
		pair.PersonA.String(), pair.PersonB.String(), string(pair.Kind)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check relationship: %w", err)
	}
	return exists, nil
}
