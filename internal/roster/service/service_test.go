package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	rostermetrics "retiro/internal/roster/metrics"
	"retiro/internal/roster/models"
	"retiro/internal/roster/policy"
	"retiro/internal/roster/store/memory"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

// =============================================================================
// Roster Engine Test Suite
// =============================================================================
// Justification for unit tests: the reconciliation pipeline combines guards,
// validation stages and the applier in strict order, and most outcomes are
// returned as data rather than errors. Exercising every short-circuit point
// through HTTP would need a full server per scenario; the memory stores let
// us assert no-mutation guarantees directly.

type EngineSuite struct {
	suite.Suite
	states  *memory.StateStore
	units   *memory.UnitStore
	links   *memory.LinkStore
	members *memory.MemberStore
	rel     *relStub
	pub     *publisherStub
	engine  *Engine

	retreatID id.RetreatID
	other     id.RetreatID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.states = memory.NewStateStore()
	s.units = memory.NewUnitStore()
	s.links = memory.NewLinkStore()
	s.members = memory.NewMemberStore()
	s.rel = newRelStub()
	s.pub = &publisherStub{}

	s.retreatID = id.NewRetreatID()
	s.other = id.NewRetreatID()
	for _, kind := range []models.Kind{models.KindFamily, models.KindTent, models.KindService} {
		s.states.Seed(models.State{RetreatID: s.retreatID, Kind: kind})
		s.states.Seed(models.State{RetreatID: s.other, Kind: kind})
	}

	var err error
	s.engine, err = New(
		Stores{State: s.states, Units: s.units, Links: s.links, Members: s.members},
		policy.NewSet(s.rel),
		memory.NewTxRunner(),
		WithMetrics(rostermetrics.New(prometheus.NewRegistry())),
		WithPublisher(s.pub),
	)
	s.Require().NoError(err)
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func (s *EngineSuite) participant(surname string, gender models.Gender, status string) models.Member {
	m := models.Member{
		ID:        id.NewMemberID(),
		RetreatID: s.retreatID,
		Name:      "Person",
		Surname:   surname,
		Gender:    gender,
		Status:    status,
		Enabled:   true,
	}
	s.members.PutParticipant(m)
	return m
}

func (s *EngineSuite) serviceMember(surname string) models.Member {
	m := models.Member{
		ID:        id.NewMemberID(),
		RetreatID: s.retreatID,
		Name:      "Person",
		Surname:   surname,
		Gender:    models.GenderMale,
		Status:    policy.StatusActive,
		Enabled:   true,
	}
	s.members.PutService(m)
	return m
}

func (s *EngineSuite) tent(name string, category models.Gender, capacity int) models.Unit {
	unit := models.Unit{
		ID:        id.NewUnitID(),
		RetreatID: s.retreatID,
		Kind:      models.KindTent,
		Name:      name,
		Category:  category,
		MaxPeople: capacity,
		MinPeople: capacity,
	}
	s.Require().NoError(s.units.Create(context.Background(), &unit))
	return unit
}

func (s *EngineSuite) family(name string) models.Unit {
	unit, err := s.engine.CreateUnit(context.Background(), &models.Unit{
		RetreatID: s.retreatID,
		Kind:      models.KindFamily,
		Name:      name,
	})
	s.Require().NoError(err)
	return *unit
}

func (s *EngineSuite) serviceSpace(name string, min, max int) models.Unit {
	unit := models.Unit{
		ID:        id.NewUnitID(),
		RetreatID: s.retreatID,
		Kind:      models.KindService,
		Name:      name,
		MinPeople: min,
		MaxPeople: max,
	}
	s.Require().NoError(s.units.Create(context.Background(), &unit))
	return unit
}

func snapshot(unitID id.UnitID, members ...models.Member) models.UnitSnapshot {
	snap := models.UnitSnapshot{UnitID: unitID}
	for i, m := range members {
		snap.Members = append(snap.Members, models.MemberSnapshot{MemberID: m.ID, Position: i + 1})
	}
	return snap
}

func (s *EngineSuite) currentLinks(kind models.Kind, unitID id.UnitID) []models.Link {
	links, err := s.links.ListByUnitIDs(context.Background(), kind, []id.UnitID{unitID})
	s.Require().NoError(err)
	return links
}

func issueCodes(issues []models.Issue) []models.IssueCode {
	codes := make([]models.IssueCode, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *EngineSuite) TestNew() {
	s.Run("missing store returns error", func() {
		_, err := New(Stores{State: s.states}, policy.NewSet(s.rel), memory.NewTxRunner())
		s.Error(err)
		s.Contains(err.Error(), "stores are required")
	})

	s.Run("missing policy set returns error", func() {
		_, err := New(Stores{State: s.states, Units: s.units, Links: s.links, Members: s.members}, nil, memory.NewTxRunner())
		s.Error(err)
		s.Contains(err.Error(), "policy set is required")
	})

	s.Run("missing tx runner returns error", func() {
		_, err := New(Stores{State: s.states, Units: s.units, Links: s.links, Members: s.members}, policy.NewSet(s.rel), nil)
		s.Error(err)
		s.Contains(err.Error(), "tx runner is required")
	})
}

// =============================================================================
// Guard Tests (version, global lock, per-unit lock)
// =============================================================================

func (s *EngineSuite) TestVersionGuard() {
	ctx := context.Background()
	unit := s.tent("Tent A", models.GenderMale, 4)
	m := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)

	s.Run("stale version reports only the mismatch", func() {
		// The submission is also invalid (unknown unit), but a stale version
		// short-circuits before any other validation runs.
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 7,
			[]models.UnitSnapshot{snapshot(id.NewUnitID(), m)}, false)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Equal(int64(0), res.Version)
		s.Equal([]models.IssueCode{models.CodeVersionMismatch}, issueCodes(res.Errors))
		s.Empty(s.currentLinks(models.KindTent, unit.ID))
	})
}

func (s *EngineSuite) TestGlobalLockGuard() {
	ctx := context.Background()
	unit := s.tent("Tent A", models.GenderMale, 4)
	m := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)

	res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
		[]models.UnitSnapshot{snapshot(unit.ID, m)}, true)
	s.Require().NoError(err)
	s.Require().True(res.Applied)

	s.Require().NoError(s.engine.SetBoardLock(ctx, models.KindTent, s.retreatID, true))

	s.Run("locked board rejects even a no-op resubmission", func() {
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 1,
			[]models.UnitSnapshot{snapshot(unit.ID, m)}, true)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Equal([]models.IssueCode{models.CodeRosterLocked}, issueCodes(res.Errors))
	})

	s.Run("unlocking reopens the board", func() {
		s.Require().NoError(s.engine.SetBoardLock(ctx, models.KindTent, s.retreatID, false))
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 1,
			[]models.UnitSnapshot{snapshot(unit.ID, m)}, true)
		s.Require().NoError(err)
		s.True(res.Applied)
	})
}

func (s *EngineSuite) TestUnitLockGuard() {
	ctx := context.Background()
	unit := s.tent("Tent A", models.GenderMale, 4)
	a := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
	b := s.participant("Pereira", models.GenderMale, policy.StatusConfirmed)
	c := s.participant("Moraes", models.GenderMale, policy.StatusConfirmed)

	res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
		[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, true)
	s.Require().NoError(err)
	s.Require().True(res.Applied)

	s.Require().NoError(s.engine.SetUnitLock(ctx, models.KindTent, s.retreatID, unit.ID, true))

	s.Run("locking through another retreat is rejected", func() {
		err := s.engine.SetUnitLock(ctx, models.KindTent, s.other, unit.ID, true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("changing a locked unit's membership is rejected", func() {
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 1,
			[]models.UnitSnapshot{snapshot(unit.ID, a, c)}, true)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Equal([]models.IssueCode{models.CodeUnitLocked}, issueCodes(res.Errors))
		s.Equal(int64(1), res.Version)
	})

	s.Run("resubmitting the same membership succeeds", func() {
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 1,
			[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, true)
		s.Require().NoError(err)
		s.True(res.Applied)
		s.Equal(int64(2), res.Version)
	})

	s.Run("reordering a locked unit leaves its links untouched", func() {
		before := s.currentLinks(models.KindTent, unit.ID)
		s.Require().Len(before, 2)

		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 2,
			[]models.UnitSnapshot{snapshot(unit.ID, b, a)}, true)
		s.Require().NoError(err)
		s.True(res.Applied)

		after := s.currentLinks(models.KindTent, unit.ID)
		s.Require().Len(after, 2)
		for i := range before {
			s.Equal(before[i].ID, after[i].ID)
			s.Equal(before[i].Position, after[i].Position)
		}
	})
}

func (s *EngineSuite) TestLockedServiceSpaceRoles() {
	ctx := context.Background()
	unit := s.serviceSpace("Kitchen", 1, 5)
	a := s.serviceMember("Souza")
	b := s.serviceMember("Pereira")

	snap := models.UnitSnapshot{UnitID: unit.ID, Members: []models.MemberSnapshot{
		{MemberID: a.ID, Position: 1, Role: models.RoleCoordinator},
		{MemberID: b.ID, Position: 2, Role: models.RoleMember},
	}}
	res, err := s.engine.AssignUnit(ctx, models.KindService, s.retreatID, 0, snap, true)
	s.Require().NoError(err)
	s.Require().True(res.Applied)

	s.Require().NoError(s.engine.SetUnitLock(ctx, models.KindService, s.retreatID, unit.ID, true))

	s.Run("swapping roles on a locked space is rejected", func() {
		swapped := models.UnitSnapshot{UnitID: unit.ID, Members: []models.MemberSnapshot{
			{MemberID: b.ID, Position: 1, Role: models.RoleCoordinator},
			{MemberID: a.ID, Position: 2, Role: models.RoleMember},
		}}
		res, err := s.engine.AssignUnit(ctx, models.KindService, s.retreatID, 1, swapped, true)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Equal([]models.IssueCode{models.CodeUnitLocked}, issueCodes(res.Errors))

		links := s.currentLinks(models.KindService, unit.ID)
		s.Require().Len(links, 2)
		s.Equal(a.ID, links[0].MemberID)
		s.Equal(models.RoleCoordinator, links[0].Role)
		s.Equal(models.RoleMember, links[1].Role)
	})

	s.Run("same people in the same roles still pass", func() {
		res, err := s.engine.AssignUnit(ctx, models.KindService, s.retreatID, 1, snap, true)
		s.Require().NoError(err)
		s.True(res.Applied)
	})
}

// =============================================================================
// Pipeline Outcome Tests
// =============================================================================

func (s *EngineSuite) TestReconcileHappyPath() {
	ctx := context.Background()
	unit := s.tent("Tent A", models.GenderMale, 4)
	a := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
	b := s.participant("Pereira", models.GenderMale, policy.StatusPaid)
	c := s.participant("Moraes", models.GenderMale, policy.StatusConfirmed)

	s.Run("under-capacity submission blocks with a warning first", func() {
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, a, b, c)}, false)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Equal(int64(0), res.Version)
		s.Empty(res.Errors)
		s.Equal([]models.IssueCode{models.CodeBelowCapacity}, issueCodes(res.Warnings))
		s.Empty(s.currentLinks(models.KindTent, unit.ID))
	})

	s.Run("override applies and bumps the version once", func() {
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, a, b, c)}, true)
		s.Require().NoError(err)
		s.True(res.Applied)
		s.Equal(int64(1), res.Version)
		s.Equal([]models.IssueCode{models.CodeBelowCapacity}, issueCodes(res.Warnings))

		s.Require().Len(res.Units, 1)
		view := res.Units[0]
		s.Equal(3, view.Occupancy)
		s.Equal([]int{1, 2, 3}, []int{view.Members[0].Position, view.Members[1].Position, view.Members[2].Position})
	})

	s.Run("success emits one event", func() {
		s.Require().Len(s.pub.events, 1)
		event := s.pub.events[0]
		s.Equal(models.KindTent, event.Kind)
		s.Equal(int64(1), event.Version)
		s.Equal(1, event.UnitsChanged)
	})
}

func (s *EngineSuite) TestIdempotentResubmission() {
	ctx := context.Background()
	unit := s.tent("Tent A", models.GenderMale, 2)
	a := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
	b := s.participant("Pereira", models.GenderMale, policy.StatusConfirmed)

	res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
		[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, false)
	s.Require().NoError(err)
	s.Require().True(res.Applied)
	before := s.currentLinks(models.KindTent, unit.ID)
	s.Require().Len(before, 2)

	res, err = s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 1,
		[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, false)
	s.Require().NoError(err)
	s.True(res.Applied)
	s.Equal(int64(2), res.Version, "the call itself still counts as one edit")

	after := s.currentLinks(models.KindTent, unit.ID)
	s.Require().Len(after, 2)
	for i := range before {
		s.Equal(before[i].ID, after[i].ID, "unchanged units must not churn links")
	}
}

func (s *EngineSuite) TestMultiUnitAtomicity() {
	ctx := context.Background()
	tentA := s.tent("Tent A", models.GenderMale, 2)
	tentB := s.tent("Tent B", models.GenderMale, 2)
	a := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
	b := s.participant("Pereira", models.GenderMale, policy.StatusConfirmed)

	ghost := models.Member{ID: id.NewMemberID()}
	res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
		[]models.UnitSnapshot{
			snapshot(tentA.ID, a, b), // individually valid
			snapshot(tentB.ID, ghost),
		}, true)
	s.Require().NoError(err)
	s.False(res.Applied)
	s.Equal(int64(0), res.Version)
	s.Equal([]models.IssueCode{models.CodeUnknownMember}, issueCodes(res.Errors))

	s.Empty(s.currentLinks(models.KindTent, tentA.ID), "valid sibling units must not be applied")
	s.Empty(s.currentLinks(models.KindTent, tentB.ID))
}

func (s *EngineSuite) TestMoveBetweenUnits() {
	ctx := context.Background()
	tentA := s.tent("Tent A", models.GenderMale, 2)
	tentB := s.tent("Tent B", models.GenderMale, 2)
	m := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)

	res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
		[]models.UnitSnapshot{snapshot(tentA.ID, m)}, true)
	s.Require().NoError(err)
	s.Require().True(res.Applied)

	s.Run("assigning elsewhere without covering the old unit is rejected", func() {
		res, err := s.engine.AssignUnit(ctx, models.KindTent, s.retreatID, 1,
			snapshot(tentB.ID, m), true)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Equal([]models.IssueCode{models.CodeDuplicateRegistration}, issueCodes(res.Errors))
		s.Equal([]id.MemberID{m.ID}, res.Errors[0].MemberIDs)

		s.Len(s.currentLinks(models.KindTent, tentA.ID), 1)
		s.Empty(s.currentLinks(models.KindTent, tentB.ID))
	})

	s.Run("covering both units moves the member", func() {
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 1,
			[]models.UnitSnapshot{{UnitID: tentA.ID}, snapshot(tentB.ID, m)}, true)
		s.Require().NoError(err)
		s.True(res.Applied)

		s.Empty(s.currentLinks(models.KindTent, tentA.ID))
		s.Len(s.currentLinks(models.KindTent, tentB.ID), 1)
	})
}

func (s *EngineSuite) TestCancelledContext() {
	unit := s.tent("Tent A", models.GenderMale, 2)
	a := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
	b := s.participant("Pereira", models.GenderMale, policy.StatusConfirmed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
		[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, true)
	s.Require().Error(err)
	s.ErrorIs(err, context.Canceled)

	s.Empty(s.currentLinks(models.KindTent, unit.ID), "cancellation must stop before any write")
	state, err := s.states.Get(context.Background(), models.KindTent, s.retreatID)
	s.Require().NoError(err)
	s.Equal(int64(0), state.Version)
}

func (s *EngineSuite) TestValidationRejections() {
	ctx := context.Background()

	s.Run("unknown unit", func() {
		m := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(id.NewUnitID(), m)}, false)
		s.Require().NoError(err)
		s.Equal([]models.IssueCode{models.CodeUnknownUnit}, issueCodes(res.Errors))
	})

	s.Run("member from another retreat", func() {
		unit := s.tent("Tent A", models.GenderMale, 4)
		foreign := models.Member{
			ID:        id.NewMemberID(),
			RetreatID: s.other,
			Surname:   "Souza",
			Gender:    models.GenderMale,
			Status:    policy.StatusConfirmed,
			Enabled:   true,
		}
		s.members.PutParticipant(foreign)
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, foreign)}, false)
		s.Require().NoError(err)
		s.Equal([]models.IssueCode{models.CodeWrongRetreat}, issueCodes(res.Errors))
		s.Equal([]id.MemberID{foreign.ID}, res.Errors[0].MemberIDs)
	})

	s.Run("member in two units of one submission", func() {
		tentA := s.tent("Tent C", models.GenderMale, 4)
		tentB := s.tent("Tent D", models.GenderMale, 4)
		m := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(tentA.ID, m), snapshot(tentB.ID, m)}, false)
		s.Require().NoError(err)
		s.Equal([]models.IssueCode{models.CodeDuplicateRegistration}, issueCodes(res.Errors))
	})

	s.Run("ineligible member", func() {
		unit := s.tent("Tent E", models.GenderMale, 4)
		pending := s.participant("Souza", models.GenderMale, "pending")
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, pending)}, false)
		s.Require().NoError(err)
		s.Equal([]models.IssueCode{models.CodeInvalidMember}, issueCodes(res.Errors))
	})

	s.Run("wrong tent category", func() {
		unit := s.tent("Tent F", models.GenderMale, 4)
		woman := s.participant("Souza", models.GenderFemale, policy.StatusConfirmed)
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, woman)}, false)
		s.Require().NoError(err)
		s.Equal([]models.IssueCode{models.CodeWrongCategory}, issueCodes(res.Errors))
	})

	s.Run("over capacity", func() {
		unit := s.tent("Tent G", models.GenderMale, 2)
		var members []models.Member
		for i := 0; i < 3; i++ {
			members = append(members, s.participant(fmt.Sprintf("Surname%d", i), models.GenderMale, policy.StatusConfirmed))
		}
		res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, members...)}, false)
		s.Require().NoError(err)
		s.Equal([]models.IssueCode{models.CodeOverCapacity}, issueCodes(res.Errors))
	})
}

// =============================================================================
// Kind-Specific Rule Tests
// =============================================================================

func (s *EngineSuite) TestFamilyRules() {
	ctx := context.Background()

	s.Run("shared normalized surname blocks", func() {
		unit := s.family("Family A")
		a := s.participant("da Silva", models.GenderMale, policy.StatusConfirmed)
		b := s.participant("Silva", models.GenderFemale, policy.StatusPaid)
		res, err := s.engine.Reconcile(ctx, models.KindFamily, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, false)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Contains(issueCodes(res.Errors), models.CodeSameSurname)
		s.ElementsMatch([]id.MemberID{a.ID, b.ID}, res.Errors[0].MemberIDs)
		s.Empty(s.currentLinks(models.KindFamily, unit.ID))
	})

	s.Run("spouses block", func() {
		unit := s.family("Family B")
		a := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
		b := s.participant("Pereira", models.GenderFemale, policy.StatusConfirmed)
		s.rel.marry(a.ID, b.ID)
		res, err := s.engine.Reconcile(ctx, models.KindFamily, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, false)
		s.Require().NoError(err)
		s.Contains(issueCodes(res.Errors), models.CodeRelationshipConflict)
	})

	s.Run("gender split enforced on a full family", func() {
		unit := s.family("Family C")
		members := []models.Member{
			s.participant("Souza", models.GenderMale, policy.StatusConfirmed),
			s.participant("Pereira", models.GenderMale, policy.StatusConfirmed),
			s.participant("Moraes", models.GenderMale, policy.StatusConfirmed),
			s.participant("Campos", models.GenderFemale, policy.StatusConfirmed),
		}
		res, err := s.engine.Reconcile(ctx, models.KindFamily, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, members...)}, false)
		s.Require().NoError(err)
		s.Contains(issueCodes(res.Errors), models.CodeCompositionInvalid)
	})

	s.Run("complete mixed family applies cleanly", func() {
		unit := s.family("Family D")
		members := []models.Member{
			s.participant("Souza", models.GenderMale, policy.StatusConfirmed),
			s.participant("Pereira", models.GenderMale, policy.StatusPaid),
			s.participant("Moraes", models.GenderFemale, policy.StatusConfirmed),
			s.participant("Campos", models.GenderFemale, policy.StatusConfirmed),
		}
		res, err := s.engine.Reconcile(ctx, models.KindFamily, s.retreatID, 0,
			[]models.UnitSnapshot{snapshot(unit.ID, members...)}, false)
		s.Require().NoError(err)
		s.True(res.Applied)
		s.Equal(int64(1), res.Version)
	})

	s.Run("same city is a warning not an error", func() {
		unit := s.family("Family E")
		a := s.participant("Souza", models.GenderMale, policy.StatusConfirmed)
		b := s.participant("Pereira", models.GenderFemale, policy.StatusConfirmed)
		a.City, b.City = "Campinas", "campinas"
		s.members.PutParticipant(a)
		s.members.PutParticipant(b)

		res, err := s.engine.Reconcile(ctx, models.KindFamily, s.retreatID, 1,
			[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, false)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Empty(res.Errors)
		s.Contains(issueCodes(res.Warnings), models.CodeSameCity)
	})
}

func (s *EngineSuite) TestServiceRules() {
	ctx := context.Background()
	unit := s.serviceSpace("Kitchen", 1, 5)
	a := s.serviceMember("Souza")
	b := s.serviceMember("Pereira")

	s.Run("two coordinators block", func() {
		snap := models.UnitSnapshot{UnitID: unit.ID, Members: []models.MemberSnapshot{
			{MemberID: a.ID, Position: 1, Role: models.RoleCoordinator},
			{MemberID: b.ID, Position: 2, Role: models.RoleCoordinator},
		}}
		res, err := s.engine.AssignUnit(ctx, models.KindService, s.retreatID, 0, snap, false)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Equal([]models.IssueCode{models.CodeDuplicateLeader}, issueCodes(res.Errors))
		s.Empty(s.currentLinks(models.KindService, unit.ID))
	})

	s.Run("coordinator plus vice applies and persists roles", func() {
		snap := models.UnitSnapshot{UnitID: unit.ID, Members: []models.MemberSnapshot{
			{MemberID: a.ID, Position: 1, Role: models.RoleCoordinator},
			{MemberID: b.ID, Position: 2, Role: models.RoleVice},
		}}
		res, err := s.engine.AssignUnit(ctx, models.KindService, s.retreatID, 0, snap, false)
		s.Require().NoError(err)
		s.Require().True(res.Applied)
		s.Require().Len(res.Units, 1)
		s.Equal(models.RoleCoordinator, res.Units[0].Members[0].Role)
		s.Equal(models.RoleVice, res.Units[0].Members[1].Role)
	})
}

// =============================================================================
// Board and Unit Management Tests
// =============================================================================

func (s *EngineSuite) TestBoard() {
	ctx := context.Background()
	unit := s.tent("Tent A", models.GenderFemale, 2)
	a := s.participant("Souza", models.GenderFemale, policy.StatusConfirmed)
	b := s.participant("Pereira", models.GenderFemale, policy.StatusConfirmed)

	res, err := s.engine.Reconcile(ctx, models.KindTent, s.retreatID, 0,
		[]models.UnitSnapshot{snapshot(unit.ID, a, b)}, false)
	s.Require().NoError(err)
	s.Require().True(res.Applied)

	board, err := s.engine.Board(ctx, models.KindTent, s.retreatID)
	s.Require().NoError(err)
	s.Equal(int64(1), board.Version)
	s.False(board.Locked)
	s.Require().Len(board.Units, 1)
	s.Equal(2, board.Units[0].Occupancy)

	s.Run("unknown retreat maps to not found", func() {
		_, err := s.engine.Board(ctx, models.KindTent, id.NewRetreatID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestBoardCache() {
	ctx := context.Background()
	cache := &cacheStub{entries: map[string][]byte{}}

	engine, err := New(
		Stores{State: s.states, Units: s.units, Links: s.links, Members: s.members},
		policy.NewSet(s.rel),
		memory.NewTxRunner(),
		WithBoardCache(cache, time.Minute),
	)
	s.Require().NoError(err)
	s.tent("Tent A", models.GenderMale, 4)

	first, err := engine.Board(ctx, models.KindTent, s.retreatID)
	s.Require().NoError(err)
	s.Equal(1, cache.sets)

	second, err := engine.Board(ctx, models.KindTent, s.retreatID)
	s.Require().NoError(err)
	s.Equal(first.Version, second.Version)
	s.Equal(1, cache.hits, "second read must come from the cache")
	s.Equal(1, cache.sets)
}

func (s *EngineSuite) TestCreateUnit() {
	ctx := context.Background()

	s.Run("rejects missing name", func() {
		_, err := s.engine.CreateUnit(ctx, &models.Unit{Kind: models.KindTent, RetreatID: s.retreatID, MaxPeople: 4})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects non-positive capacity", func() {
		_, err := s.engine.CreateUnit(ctx, &models.Unit{Kind: models.KindTent, RetreatID: s.retreatID, Name: "Tent"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("family capacity is fixed by policy", func() {
		unit, err := s.engine.CreateUnit(ctx, &models.Unit{Kind: models.KindFamily, RetreatID: s.retreatID, Name: "Family", MaxPeople: 10})
		s.Require().NoError(err)
		s.Equal(policy.FamilySize, unit.MinPeople)
		s.Equal(policy.FamilySize, unit.MaxPeople)
		s.False(unit.ID.IsNil())
	})
}

// -----------------------------------------------------------------------------
// Stubs
// -----------------------------------------------------------------------------

type relStub struct {
	spouses   map[string]bool
	relatives map[string]bool
}

func newRelStub() *relStub {
	return &relStub{spouses: map[string]bool{}, relatives: map[string]bool{}}
}

func pairKey(a, b id.MemberID) string {
	if a.String() < b.String() {
		return a.String() + "/" + b.String()
	}
	return b.String() + "/" + a.String()
}

func (r *relStub) marry(a, b id.MemberID) { r.spouses[pairKey(a, b)] = true }

func (r *relStub) AreSpouses(_ context.Context, a, b id.MemberID) (bool, error) {
	return r.spouses[pairKey(a, b)], nil
}

func (r *relStub) AreDirectRelatives(_ context.Context, a, b id.MemberID) (bool, error) {
	return r.relatives[pairKey(a, b)], nil
}

type publisherStub struct {
	events []models.ReconciledEvent
}

func (p *publisherStub) Emit(_ context.Context, event models.ReconciledEvent) error {
	p.events = append(p.events, event)
	return nil
}

type cacheStub struct {
	entries map[string][]byte
	hits    int
	sets    int
}

func (c *cacheStub) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return raw, ok, nil
}

func (c *cacheStub) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	c.entries[key] = value
	return nil
}
