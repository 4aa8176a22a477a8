// Package policy parameterizes the reconciliation engine per roster kind.
//
// The three boards (families, tents, service spaces) share one pipeline; what
// differs is who is eligible, how capacity is derived, whether the unit has a
// category constraint, and which composition rules apply. Each difference
// lives behind the Policy interface so the engine stays generic.
package policy

import (
	"context"

	"retiro/internal/roster/models"
	"retiro/internal/roster/ports"
	dErrors "retiro/pkg/domain-errors"
)

// Policy is the per-kind strategy consumed by the engine.
type Policy interface {
	Kind() models.Kind
	// Eligible reports whether the member may be rostered at all.
	Eligible(m models.Member) bool
	// EligibilityHint names the requirement in error messages.
	EligibilityHint() string
	// Capacity returns the unit's effective bounds.
	Capacity(u models.Unit) (min, max int)
	// MatchesCategory reports whether the member fits the unit's category.
	// Kinds without categories always return true.
	MatchesCategory(u models.Unit, m models.Member) bool
	// Validate runs kind-specific rules over one unit's resolved membership.
	// members is ordered like the submitted snapshot.
	Validate(ctx context.Context, unit models.Unit, members []models.Member, snap models.UnitSnapshot) ([]models.Issue, error)
}

// Set bundles the three policies so callers resolve by kind.
type Set struct {
	policies map[models.Kind]Policy
}

// NewSet builds the default policy set. The relationship checker is only
// consumed by the family policy.
func NewSet(rel ports.RelationshipChecker) *Set {
	return &Set{policies: map[models.Kind]Policy{
		models.KindFamily:  NewFamily(rel),
		models.KindTent:    NewTent(),
		models.KindService: NewService(),
	}}
}

// For resolves the policy for a kind.
func (s *Set) For(kind models.Kind) (Policy, error) {
	p, ok := s.policies[kind]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "no policy for roster kind %q", kind)
	}
	return p, nil
}
