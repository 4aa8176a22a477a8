package service

import (
	"context"
	"fmt"

	"retiro/internal/roster/models"
	"retiro/internal/roster/policy"
	id "retiro/pkg/domain"
)

// validate runs the ordered rule pipeline. A stage that yields blocking
// findings stops the pipeline (later stages would operate on unresolved
// data); warning-only stages let it continue. The caller decides what the
// accumulated findings mean.
func (e *Engine) validate(ctx context.Context, pol policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	stages := []func(context.Context, policy.Policy, *loaded, []models.UnitSnapshot) ([]models.Issue, error){
		checkKnownUnits,
		checkUnitLocks,
		checkKnownMembers,
		checkRetreatOwnership,
		checkCrossUnitDuplicates,
		checkExistingAssignments,
		checkEligibility,
		checkCategories,
		checkCapacity,
		checkPolicyRules,
	}

	var issues []models.Issue
	for _, stage := range stages {
		found, err := stage(ctx, pol, ld, snapshot)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
		if models.HasErrors(found) {
			break
		}
	}
	return issues, nil
}

func checkKnownUnits(_ context.Context, _ policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	for _, snap := range snapshot {
		if _, known := ld.unitsByID[snap.UnitID]; !known {
			issues = append(issues, models.NewError(models.CodeUnknownUnit,
				fmt.Sprintf("unit %s does not belong to this retreat", snap.UnitID)).
				ForUnit(snap.UnitID))
		}
	}
	return issues, nil
}

// checkUnitLocks implements the per-unit half of the lock guard: a locked
// unit only rejects a submission that actually changes who is assigned or in
// what role. Resubmitting the same people (in any order) is a no-op success,
// which lets a UI keep saving the whole board while some units are frozen.
func checkUnitLocks(_ context.Context, _ policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	for _, snap := range snapshot {
		unit := ld.unitsByID[snap.UnitID]
		if !unit.Locked {
			continue
		}
		if sameAssignments(ld.currentByUnit[snap.UnitID], snap) {
			continue
		}
		issues = append(issues, models.NewError(models.CodeUnitLocked,
			fmt.Sprintf("%s is locked and its assignments cannot change", unit.Name)).
			ForUnit(unit.ID))
	}
	return issues, nil
}

func checkKnownMembers(_ context.Context, _ policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	for _, snap := range snapshot {
		var missing []id.MemberID
		for _, m := range snap.Members {
			if _, known := ld.membersByID[m.MemberID]; !known {
				missing = append(missing, m.MemberID)
			}
		}
		if len(missing) > 0 {
			issues = append(issues, models.NewError(models.CodeUnknownMember,
				"submission references registrations that do not exist").
				ForUnit(snap.UnitID).WithMembers(missing...))
		}
	}
	return issues, nil
}

func checkRetreatOwnership(_ context.Context, _ policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	for _, snap := range snapshot {
		unit := ld.unitsByID[snap.UnitID]
		var foreign []id.MemberID
		for _, m := range snap.Members {
			if member := ld.membersByID[m.MemberID]; member.RetreatID != unit.RetreatID {
				foreign = append(foreign, m.MemberID)
			}
		}
		if len(foreign) > 0 {
			issues = append(issues, models.NewError(models.CodeWrongRetreat,
				"submission references registrations from another retreat").
				ForUnit(snap.UnitID).WithMembers(foreign...))
		}
	}
	return issues, nil
}

// checkCrossUnitDuplicates enforces the central invariant inside one
// snapshot: a member cannot appear in two units at once.
func checkCrossUnitDuplicates(_ context.Context, _ policy.Policy, _ *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	// A duplicate inside a single unit counts the same as one across units.
	firstSeen := make(map[id.MemberID]id.UnitID)
	duped := make(map[id.MemberID]struct{})
	var issues []models.Issue
	for _, snap := range snapshot {
		for _, m := range snap.Members {
			if _, seen := firstSeen[m.MemberID]; !seen {
				firstSeen[m.MemberID] = snap.UnitID
				continue
			}
			if _, reported := duped[m.MemberID]; reported {
				continue
			}
			duped[m.MemberID] = struct{}{}
			issues = append(issues, models.NewError(models.CodeDuplicateRegistration,
				fmt.Sprintf("member %s appears more than once in this submission", m.MemberID)).
				ForUnit(snap.UnitID).WithMembers(m.MemberID))
		}
	}
	return issues, nil
}

// checkExistingAssignments extends the duplicate check to persisted state: a
// member whose current link sits in a unit the submission does not cover
// would end up assigned twice. Moving someone therefore means submitting
// both units in one call, so the board states where they leave as well as
// where they land. The unique index remains the backstop against concurrent
// writers.
func checkExistingAssignments(_ context.Context, _ policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	submitted := make(map[id.UnitID]struct{}, len(snapshot))
	for _, snap := range snapshot {
		submitted[snap.UnitID] = struct{}{}
	}
	var issues []models.Issue
	for _, snap := range snapshot {
		var held []id.MemberID
		for _, m := range snap.Members {
			link, ok := ld.linkByMember[m.MemberID]
			if !ok {
				continue
			}
			if _, covered := submitted[link.UnitID]; covered {
				continue
			}
			held = append(held, m.MemberID)
		}
		if len(held) > 0 {
			issues = append(issues, models.NewError(models.CodeDuplicateRegistration,
				"submission references members still assigned to units it does not cover").
				ForUnit(snap.UnitID).WithMembers(held...))
		}
	}
	return issues, nil
}

func checkEligibility(_ context.Context, pol policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	for _, snap := range snapshot {
		var ineligible []id.MemberID
		for _, m := range snap.Members {
			if !pol.Eligible(ld.membersByID[m.MemberID]) {
				ineligible = append(ineligible, m.MemberID)
			}
		}
		if len(ineligible) > 0 {
			issues = append(issues, models.NewError(models.CodeInvalidMember,
				pol.EligibilityHint()).
				ForUnit(snap.UnitID).WithMembers(ineligible...))
		}
	}
	return issues, nil
}

func checkCategories(_ context.Context, pol policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	for _, snap := range snapshot {
		unit := ld.unitsByID[snap.UnitID]
		var mismatched []id.MemberID
		for _, m := range snap.Members {
			if !pol.MatchesCategory(unit, ld.membersByID[m.MemberID]) {
				mismatched = append(mismatched, m.MemberID)
			}
		}
		if len(mismatched) > 0 {
			issues = append(issues, models.NewError(models.CodeWrongCategory,
				fmt.Sprintf("%s only takes %s members", unit.Name, unit.Category)).
				ForUnit(unit.ID).WithMembers(mismatched...))
		}
	}
	return issues, nil
}

// checkCapacity rejects overfull units and warns about underfull ones. The
// warning is overridable: boards get saved while still being assembled.
func checkCapacity(_ context.Context, pol policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	for _, snap := range snapshot {
		unit := ld.unitsByID[snap.UnitID]
		minPeople, maxPeople := pol.Capacity(unit)
		count := len(snap.Members)
		switch {
		case count > maxPeople:
			issues = append(issues, models.NewError(models.CodeOverCapacity,
				fmt.Sprintf("%s takes at most %d people, got %d", unit.Name, maxPeople, count)).
				ForUnit(unit.ID))
		case count > 0 && count < minPeople:
			issues = append(issues, models.NewWarning(models.CodeBelowCapacity,
				fmt.Sprintf("%s has %d of %d people", unit.Name, count, minPeople)).
				ForUnit(unit.ID))
		}
	}
	return issues, nil
}

func checkPolicyRules(ctx context.Context, pol policy.Policy, ld *loaded, snapshot []models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	for _, snap := range snapshot {
		unit := ld.unitsByID[snap.UnitID]
		members := make([]models.Member, 0, len(snap.Members))
		for _, m := range orderedMembers(snap) {
			members = append(members, ld.membersByID[m.MemberID])
		}
		found, err := pol.Validate(ctx, unit, members, snap)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}
	return issues, nil
}
