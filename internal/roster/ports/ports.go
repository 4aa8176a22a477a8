// Package ports declares the narrow interfaces the roster engine consumes.
// Postgres implementations live in store/postgres; mutex-guarded twins in
// store/memory back the unit tests.
package ports

import (
	"context"
	"time"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
)

// StateStore owns the per-kind version counter and global lock flag.
type StateStore interface {
	Get(ctx context.Context, kind models.Kind, retreatID id.RetreatID) (*models.State, error)
	// BumpVersion increments the counter by one, guarded by the version the
	// caller read. Returns sentinel.ErrConflict when a concurrent writer got
	// there first.
	BumpVersion(ctx context.Context, kind models.Kind, retreatID id.RetreatID, from int64) error
	SetLocked(ctx context.Context, kind models.Kind, retreatID id.RetreatID, locked bool) error
}

// UnitStore lists the units of one board.
type UnitStore interface {
	ListByRetreat(ctx context.Context, kind models.Kind, retreatID id.RetreatID) ([]models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) error
	// SetLocked scopes the update to one board: a unit id from another
	// retreat or kind is sentinel.ErrNotFound, not a silent toggle.
	SetLocked(ctx context.Context, kind models.Kind, retreatID id.RetreatID, unitID id.UnitID, locked bool) error
}

// LinkStore reads and replaces unit-member links. RemoveRange plus AddRange
// inside one transaction is the whole-unit replace primitive; links are never
// patched row by row.
type LinkStore interface {
	ListByUnitIDs(ctx context.Context, kind models.Kind, unitIDs []id.UnitID) ([]models.Link, error)
	// ListByMemberIDs returns the current link, if any, of each named member
	// on one board. The validator uses it to catch a member the submission
	// would assign twice across persisted and submitted units.
	ListByMemberIDs(ctx context.Context, kind models.Kind, retreatID id.RetreatID, memberIDs []id.MemberID) ([]models.Link, error)
	RemoveRange(ctx context.Context, links []models.Link) error
	AddRange(ctx context.Context, links []models.Link) error
}

// MemberStore resolves referenced registrations in bulk. The kind selects the
// source: families and tents draw from participant registrations, service
// spaces from service registrations.
type MemberStore interface {
	GetMapByIDs(ctx context.Context, kind models.Kind, ids []id.MemberID) (map[id.MemberID]models.Member, error)
}

// RelationshipChecker answers pairwise kinship questions for family
// composition rules. Calls are O(n²) per unit; units hold at most a handful
// of members so a batch API would be premature.
type RelationshipChecker interface {
	AreSpouses(ctx context.Context, a, b id.MemberID) (bool, error)
	AreDirectRelatives(ctx context.Context, a, b id.MemberID) (bool, error)
}

// TxRunner wraps delete+insert+version-bump into one atomic unit of work.
type TxRunner interface {
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher fans a successful reconciliation out to the notification
// pipeline. Emission failures must not fail the mutation.
type EventPublisher interface {
	Emit(ctx context.Context, event models.ReconciledEvent) error
}

// BoardCache holds rendered boards keyed by version, so invalidation is
// implicit: a bumped version is a new key.
type BoardCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
