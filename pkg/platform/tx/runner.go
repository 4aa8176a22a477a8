package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"retiro/pkg/platform/sentinel"
)

// Runner opens database transactions and exposes them to stores through the
// context. Roster mutations run at Serializable isolation: the version check
// in front is only an optimistic fast-path, the database is the final arbiter
// when two writers slip past it with the same version.
type Runner struct {
	db *sql.DB
}

func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// RunSerializable executes fn inside a Serializable transaction. The
// transaction is committed when fn returns nil and rolled back otherwise.
// Serialization failures surface as sentinel.ErrConflict so callers can
// retry with backoff instead of treating them as crashes.
func (r *Runner) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	t, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin serializable tx: %w", err)
	}

	if err := fn(WithTx(ctx, t)); err != nil {
		_ = t.Rollback()
		return translateConflict(err)
	}

	if err := t.Commit(); err != nil {
		return translateConflict(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// translateConflict maps Postgres serialization and uniqueness failures onto
// sentinel.ErrConflict. Class 40001 is a serialization failure, 40P01 a
// deadlock, 23505 a unique violation (e.g. the one-link-per-member index).
func translateConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%w: %v", sentinel.ErrConflict, err)
		}
	}
	return err
}
