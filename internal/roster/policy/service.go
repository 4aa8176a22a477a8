package policy

import (
	"context"
	"fmt"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
)

// StatusActive is the service-registration status required for team work.
const StatusActive = "active"

// Service policy: min/max people come from the space, and each team carries
// at most one coordinator and one vice.
type Service struct{}

func NewService() *Service { return &Service{} }

func (*Service) Kind() models.Kind { return models.KindService }

func (*Service) Eligible(m models.Member) bool {
	return m.Enabled && m.Status == StatusActive
}

func (*Service) EligibilityHint() string {
	return "only active service registrations can join a team"
}

func (*Service) Capacity(u models.Unit) (int, int) {
	return u.MinPeople, u.MaxPeople
}

func (*Service) MatchesCategory(models.Unit, models.Member) bool { return true }

func (*Service) Validate(_ context.Context, unit models.Unit, _ []models.Member, snap models.UnitSnapshot) ([]models.Issue, error) {
	var issues []models.Issue
	if dupes := duplicateRole(snap, models.RoleCoordinator); len(dupes) > 0 {
		issues = append(issues, models.NewError(models.CodeDuplicateLeader,
			fmt.Sprintf("%s has more than one coordinator", unit.Name)).
			ForUnit(unit.ID).WithMembers(dupes...))
	}
	if dupes := duplicateRole(snap, models.RoleVice); len(dupes) > 0 {
		issues = append(issues, models.NewError(models.CodeDuplicateLeader,
			fmt.Sprintf("%s has more than one vice-coordinator", unit.Name)).
			ForUnit(unit.ID).WithMembers(dupes...))
	}
	return issues, nil
}

// duplicateRole returns every member holding the role when more than one does.
func duplicateRole(snap models.UnitSnapshot, role models.Role) []id.MemberID {
	var holders []id.MemberID
	for _, m := range snap.Members {
		if m.Role == role {
			holders = append(holders, m.MemberID)
		}
	}
	if len(holders) <= 1 {
		return nil
	}
	return holders
}
