package service

import (
	"context"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
)

// apply replaces the links of every changed unit. Per unit the state machine
// is: unchanged → no-op, changed → delete all current links and insert the
// submitted ones in order. Untouched units are never read or written. The
// caller bumps the version and owns the transaction, so a failure anywhere
// rolls back every unit.
func (e *Engine) apply(ctx context.Context, kind models.Kind, retreatID id.RetreatID, ld *loaded, snapshot []models.UnitSnapshot) (changed int, err error) {
	var removals []models.Link
	var additions []models.Link

	for _, snap := range snapshot {
		// The lock guard already vetted a locked unit's assignments; skip
		// the rewrite so even a reorder leaves its persisted rows alone.
		if ld.unitsByID[snap.UnitID].Locked {
			continue
		}
		current := ld.currentByUnit[snap.UnitID]
		if sameLinks(current, snap) {
			continue
		}
		changed++
		removals = append(removals, current...)
		for i, m := range orderedMembers(snap) {
			additions = append(additions, models.Link{
				ID:        id.NewLinkID(),
				RetreatID: retreatID,
				UnitID:    snap.UnitID,
				Kind:      kind,
				MemberID:  m.MemberID,
				Position:  i + 1,
				Role:      m.Role,
			})
		}
	}

	if len(removals) > 0 {
		if err := e.stores.Links.RemoveRange(ctx, removals); err != nil {
			return 0, err
		}
	}
	if len(additions) > 0 {
		if err := e.stores.Links.AddRange(ctx, additions); err != nil {
			return 0, err
		}
	}
	return changed, nil
}
