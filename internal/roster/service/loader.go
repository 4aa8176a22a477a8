package service

import (
	"context"
	"sort"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
)

// loaded is the bulk-resolved working set for one reconciliation: every unit
// of the board, the current links of the touched units, every member the
// snapshot references, and each referenced member's current link anywhere on
// the board.
type loaded struct {
	unitsByID     map[id.UnitID]models.Unit
	currentByUnit map[id.UnitID][]models.Link
	membersByID   map[id.MemberID]models.Member
	linkByMember  map[id.MemberID]models.Link
}

func (e *Engine) load(ctx context.Context, kind models.Kind, retreatID id.RetreatID, snapshot []models.UnitSnapshot) (*loaded, error) {
	units, err := e.stores.Units.ListByRetreat(ctx, kind, retreatID)
	if err != nil {
		return nil, err
	}
	unitsByID := make(map[id.UnitID]models.Unit, len(units))
	for _, u := range units {
		unitsByID[u.ID] = u
	}

	// Unknown unit ids stay out of the link query; the validator reports them.
	var touched []id.UnitID
	for _, snap := range snapshot {
		if _, known := unitsByID[snap.UnitID]; known {
			touched = append(touched, snap.UnitID)
		}
	}

	currentByUnit := make(map[id.UnitID][]models.Link, len(touched))
	if len(touched) > 0 {
		links, err := e.stores.Links.ListByUnitIDs(ctx, kind, touched)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			currentByUnit[link.UnitID] = append(currentByUnit[link.UnitID], link)
		}
		for _, unitLinks := range currentByUnit {
			sort.Slice(unitLinks, func(i, j int) bool { return unitLinks[i].Position < unitLinks[j].Position })
		}
	}

	memberIDs := collectMemberIDs(snapshot)
	membersByID := map[id.MemberID]models.Member{}
	linkByMember := map[id.MemberID]models.Link{}
	if len(memberIDs) > 0 {
		membersByID, err = e.stores.Members.GetMapByIDs(ctx, kind, memberIDs)
		if err != nil {
			return nil, err
		}
		existing, err := e.stores.Links.ListByMemberIDs(ctx, kind, retreatID, memberIDs)
		if err != nil {
			return nil, err
		}
		for _, link := range existing {
			linkByMember[link.MemberID] = link
		}
	}

	return &loaded{
		unitsByID:     unitsByID,
		currentByUnit: currentByUnit,
		membersByID:   membersByID,
		linkByMember:  linkByMember,
	}, nil
}

// collectMemberIDs gathers every referenced member exactly once so the store
// resolves them in a single bulk lookup.
func collectMemberIDs(snapshot []models.UnitSnapshot) []id.MemberID {
	seen := make(map[id.MemberID]struct{})
	var out []id.MemberID
	for _, snap := range snapshot {
		for _, m := range snap.Members {
			if _, dup := seen[m.MemberID]; dup {
				continue
			}
			seen[m.MemberID] = struct{}{}
			out = append(out, m.MemberID)
		}
	}
	return out
}

// sameAssignments compares persisted links and a submitted snapshot on
// member and role, independent of order. This is the lock-guard notion of
// "changed": a locked unit accepts an order-shuffled resubmission of the same
// people in the same roles, and nothing else.
func sameAssignments(current []models.Link, snap models.UnitSnapshot) bool {
	if len(current) != len(snap.Members) {
		return false
	}
	roles := make(map[id.MemberID]models.Role, len(current))
	for _, link := range current {
		roles[link.MemberID] = link.Role
	}
	for _, m := range snap.Members {
		role, ok := roles[m.MemberID]
		if !ok || role != m.Role {
			return false
		}
	}
	return true
}

// sameLinks compares the ordered (member, role) sequence. This is the applier
// notion of "changed": reordering or a role change rewrites the unit even
// though the member set is identical.
func sameLinks(current []models.Link, snap models.UnitSnapshot) bool {
	if len(current) != len(snap.Members) {
		return false
	}
	ordered := orderedMembers(snap)
	for i, link := range current {
		if link.MemberID != ordered[i].MemberID || link.Role != ordered[i].Role {
			return false
		}
	}
	return true
}

// orderedMembers returns the snapshot members sorted by submitted position.
// Persisted positions are renumbered densely from 1, so gappy client input
// does not count as a change.
func orderedMembers(snap models.UnitSnapshot) []models.MemberSnapshot {
	ordered := make([]models.MemberSnapshot, len(snap.Members))
	copy(ordered, snap.Members)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })
	return ordered
}
