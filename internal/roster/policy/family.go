package policy

import (
	"context"
	"fmt"
	"strings"

	"retiro/internal/roster/models"
	"retiro/internal/roster/ports"
	id "retiro/pkg/domain"
)

// Family composition is fixed: exactly four members, two men and two women.
const (
	FamilySize      = 4
	familyPerGender = 2
)

// Family policy: a family is a fixed 2/2 group of strangers. Couples,
// direct relatives and same-surname members would defeat the purpose of
// mixing people, so they are blocking; same-city clustering is only a
// warning because small towns sometimes leave no alternative.
type Family struct {
	rel ports.RelationshipChecker
}

func NewFamily(rel ports.RelationshipChecker) *Family {
	return &Family{rel: rel}
}

func (*Family) Kind() models.Kind { return models.KindFamily }

func (*Family) Eligible(m models.Member) bool {
	return m.Enabled && (m.Status == StatusConfirmed || m.Status == StatusPaid)
}

func (*Family) EligibilityHint() string {
	return "only confirmed or paid registrations can be grouped into a family"
}

// Capacity of a family is fixed regardless of what the unit row says.
func (*Family) Capacity(models.Unit) (int, int) {
	return FamilySize, FamilySize
}

func (*Family) MatchesCategory(models.Unit, models.Member) bool { return true }

func (f *Family) Validate(ctx context.Context, unit models.Unit, members []models.Member, _ models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue

	// An empty family is fine (being assembled); a partial or overfull one is
	// reported by the shared capacity stage. Composition rules only make
	// sense over a complete family.
	if comp := checkComposition(unit, members); comp != nil {
		issues = append(issues, *comp)
	}

	surname, err := f.checkPairs(ctx, unit, members)
	if err != nil {
		return nil, err
	}
	issues = append(issues, surname...)

	if city := checkSameCity(unit, members); city != nil {
		issues = append(issues, *city)
	}
	return issues, nil
}

// checkComposition enforces the 2/2 gender split once the family is full.
func checkComposition(unit models.Unit, members []models.Member) *models.Issue {
	if len(members) != FamilySize {
		return nil
	}
	var male, female int
	for _, m := range members {
		switch m.Gender {
		case models.GenderMale:
			male++
		case models.GenderFemale:
			female++
		}
	}
	if male == familyPerGender && female == familyPerGender {
		return nil
	}
	issue := models.NewError(models.CodeCompositionInvalid,
		fmt.Sprintf("%s must have %d men and %d women, got %d/%d",
			unit.Name, familyPerGender, familyPerGender, male, female)).
		ForUnit(unit.ID)
	return &issue
}

// checkPairs runs the pairwise spouse/relative/surname rules.
func (f *Family) checkPairs(ctx context.Context, unit models.Unit, members []models.Member) ([]models.Issue, error) {
	var issues []models.Issue
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			a, b := members[i], members[j]

			spouses, err := f.rel.AreSpouses(ctx, a.ID, b.ID)
			if err != nil {
				return nil, fmt.Errorf("check spouses: %w", err)
			}
			if spouses {
				issues = append(issues, models.NewError(models.CodeRelationshipConflict,
					fmt.Sprintf("%s %s and %s %s are spouses and cannot share a family",
						a.Name, a.Surname, b.Name, b.Surname)).
					ForUnit(unit.ID).WithMembers(a.ID, b.ID))
				continue
			}

			relatives, err := f.rel.AreDirectRelatives(ctx, a.ID, b.ID)
			if err != nil {
				return nil, fmt.Errorf("check relatives: %w", err)
			}
			if relatives {
				issues = append(issues, models.NewError(models.CodeRelationshipConflict,
					fmt.Sprintf("%s %s and %s %s are direct relatives and cannot share a family",
						a.Name, a.Surname, b.Name, b.Surname)).
					ForUnit(unit.ID).WithMembers(a.ID, b.ID))
				continue
			}

			if sameSurname(a.Surname, b.Surname) {
				issues = append(issues, models.NewError(models.CodeSameSurname,
					fmt.Sprintf("%s %s and %s %s share the surname %q",
						a.Name, a.Surname, b.Name, b.Surname, NormalizeSurname(a.Surname))).
					ForUnit(unit.ID).WithMembers(a.ID, b.ID))
			}
		}
	}
	return issues, nil
}

// checkSameCity warns when two or more members come from the same city.
func checkSameCity(unit models.Unit, members []models.Member) *models.Issue {
	byCity := make(map[string][]id.MemberID)
	for _, m := range members {
		city := strings.ToLower(strings.TrimSpace(m.City))
		if city == "" {
			continue
		}
		byCity[city] = append(byCity[city], m.ID)
	}

	var clustered []id.MemberID
	for _, ids := range byCity {
		if len(ids) > 1 {
			clustered = append(clustered, ids...)
		}
	}
	if len(clustered) == 0 {
		return nil
	}
	issue := models.NewWarning(models.CodeSameCity,
		fmt.Sprintf("%s groups members from the same city", unit.Name)).
		ForUnit(unit.ID).WithMembers(clustered...)
	return &issue
}

// Connective particles dropped before comparing surnames: "da Silva" and
// "Silva" collide on "silva".
var surnameConnectives = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "dos": {}, "das": {}, "e": {},
}

// NormalizeSurname lowercases the surname and strips connective particles so
// comparisons ignore spelling noise.
func NormalizeSurname(surname string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(surname)))
	kept := fields[:0]
	for _, f := range fields {
		if _, connective := surnameConnectives[f]; connective {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func sameSurname(a, b string) bool {
	na, nb := NormalizeSurname(a), NormalizeSurname(b)
	return na != "" && na == nb
}
