package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
)

func TestNormalizeSurname(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Silva", "silva"},
		{"da Silva", "silva"},
		{"DA SILVA", "silva"},
		{"Souza e Silva", "souza silva"},
		{"dos Santos", "santos"},
		{"  de  Oliveira  ", "oliveira"},
		{"", ""},
		{"de", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeSurname(tc.in), "input %q", tc.in)
	}
}

func TestSameSurname(t *testing.T) {
	assert.True(t, sameSurname("da Silva", "Silva"))
	assert.True(t, sameSurname("DOS SANTOS", "santos"))
	assert.False(t, sameSurname("Souza e Silva", "Silva"))
	assert.False(t, sameSurname("", ""), "empty surnames never collide")
}

func TestSetResolution(t *testing.T) {
	set := NewSet(nopChecker{})

	for _, kind := range []models.Kind{models.KindFamily, models.KindTent, models.KindService} {
		pol, err := set.For(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, pol.Kind())
	}

	_, err := set.For(models.Kind("cabins"))
	assert.Error(t, err)
}

func TestEligibility(t *testing.T) {
	confirmed := models.Member{Status: StatusConfirmed, Enabled: true}
	paid := models.Member{Status: StatusPaid, Enabled: true}
	pending := models.Member{Status: "pending", Enabled: true}
	disabled := models.Member{Status: StatusConfirmed}
	active := models.Member{Status: StatusActive, Enabled: true}

	t.Run("tent and family accept confirmed or paid", func(t *testing.T) {
		for _, pol := range []Policy{NewTent(), NewFamily(nopChecker{})} {
			assert.True(t, pol.Eligible(confirmed))
			assert.True(t, pol.Eligible(paid))
			assert.False(t, pol.Eligible(pending))
			assert.False(t, pol.Eligible(disabled), "disabled registrations are never eligible")
		}
	})

	t.Run("service requires an active service registration", func(t *testing.T) {
		pol := NewService()
		assert.True(t, pol.Eligible(active))
		assert.False(t, pol.Eligible(confirmed))
		assert.False(t, pol.Eligible(models.Member{Status: StatusActive}))
	})
}

func TestTentCategory(t *testing.T) {
	tent := NewTent()
	male := models.Unit{Category: models.GenderMale}
	open := models.Unit{}

	assert.True(t, tent.MatchesCategory(male, models.Member{Gender: models.GenderMale}))
	assert.False(t, tent.MatchesCategory(male, models.Member{Gender: models.GenderFemale}))
	assert.True(t, tent.MatchesCategory(open, models.Member{Gender: models.GenderFemale}), "no category means no constraint")
}

func TestServiceDuplicateLeaders(t *testing.T) {
	pol := NewService()
	unit := models.Unit{ID: id.NewUnitID(), Name: "Kitchen"}
	a, b, c := id.NewMemberID(), id.NewMemberID(), id.NewMemberID()

	t.Run("one of each role is fine", func(t *testing.T) {
		snap := models.UnitSnapshot{UnitID: unit.ID, Members: []models.MemberSnapshot{
			{MemberID: a, Position: 1, Role: models.RoleCoordinator},
			{MemberID: b, Position: 2, Role: models.RoleVice},
			{MemberID: c, Position: 3, Role: models.RoleMember},
		}}
		issues, err := pol.Validate(context.Background(), unit, nil, snap)
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("duplicate vices are reported with the holders", func(t *testing.T) {
		snap := models.UnitSnapshot{UnitID: unit.ID, Members: []models.MemberSnapshot{
			{MemberID: a, Position: 1, Role: models.RoleVice},
			{MemberID: b, Position: 2, Role: models.RoleVice},
		}}
		issues, err := pol.Validate(context.Background(), unit, nil, snap)
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, models.CodeDuplicateLeader, issues[0].Code)
		assert.ElementsMatch(t, []id.MemberID{a, b}, issues[0].MemberIDs)
	})
}

func TestFamilyComposition(t *testing.T) {
	unit := models.Unit{ID: id.NewUnitID(), Name: "Family A"}

	member := func(gender models.Gender) models.Member {
		return models.Member{ID: id.NewMemberID(), Gender: gender}
	}

	t.Run("partial families skip the split check", func(t *testing.T) {
		issue := checkComposition(unit, []models.Member{member(models.GenderMale)})
		assert.Nil(t, issue)
	})

	t.Run("full family with skewed split is rejected", func(t *testing.T) {
		members := []models.Member{
			member(models.GenderMale), member(models.GenderMale),
			member(models.GenderMale), member(models.GenderFemale),
		}
		issue := checkComposition(unit, members)
		require.NotNil(t, issue)
		assert.Equal(t, models.CodeCompositionInvalid, issue.Code)
	})

	t.Run("two and two passes", func(t *testing.T) {
		members := []models.Member{
			member(models.GenderMale), member(models.GenderMale),
			member(models.GenderFemale), member(models.GenderFemale),
		}
		assert.Nil(t, checkComposition(unit, members))
	})
}

type nopChecker struct{}

func (nopChecker) AreSpouses(context.Context, id.MemberID, id.MemberID) (bool, error) {
	return false, nil
}

func (nopChecker) AreDirectRelatives(context.Context, id.MemberID, id.MemberID) (bool, error) {
	return false, nil
}
