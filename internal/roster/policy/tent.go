package policy

import (
	"context"

	"retiro/internal/roster/models"
)

// Registration statuses that make a participant tent- and family-assignable.
// Only people who actually confirmed (or already paid) get a bed.
const (
	StatusConfirmed = "confirmed"
	StatusPaid      = "paid"
)

// Tent policy: capacity comes from the unit, gender category is enforced,
// no composition rules beyond the shared pipeline.
type Tent struct{}

func NewTent() *Tent { return &Tent{} }

func (*Tent) Kind() models.Kind { return models.KindTent }

func (*Tent) Eligible(m models.Member) bool {
	return m.Enabled && (m.Status == StatusConfirmed || m.Status == StatusPaid)
}

func (*Tent) EligibilityHint() string {
	return "only confirmed or paid registrations can be assigned to a tent"
}

func (*Tent) Capacity(u models.Unit) (int, int) {
	return u.MinPeople, u.MaxPeople
}

func (*Tent) MatchesCategory(u models.Unit, m models.Member) bool {
	if u.Category == "" {
		return true
	}
	return u.Category == m.Gender
}

func (*Tent) Validate(_ context.Context, _ models.Unit, _ []models.Member, _ models.UnitSnapshot) ([]models.Issue, error) {
	return nil, nil
}
