// Package models holds the retreat aggregate.
package models

import (
	"time"

	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

// Status is the retreat lifecycle state.
//
// Transitions: draft → open → closed. A closed retreat stays closed; its
// rosters are frozen through the board locks, not through this status.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// CanTransitionTo reports whether the lifecycle allows the move.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusOpen
	case StatusOpen:
		return next == StatusClosed
	default:
		return false
	}
}

// Retreat is the aggregate root. Every roster board, registration and payment
// hangs off one retreat.
//
// Invariants:
//   - Name is non-empty
//   - Edition is positive
//   - EndsOn is not before StartsOn
//   - Status transitions follow draft → open → closed
type Retreat struct {
	ID        id.RetreatID `json:"id"`
	Name      string       `json:"name"`
	Edition   int          `json:"edition"`
	Status    Status       `json:"status"`
	StartsOn  time.Time    `json:"starts_on"`
	EndsOn    time.Time    `json:"ends_on"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// New validates and builds a retreat in draft state.
func New(name string, edition int, startsOn, endsOn time.Time, now time.Time) (*Retreat, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "retreat name is required")
	}
	if edition <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "retreat edition must be positive")
	}
	if endsOn.Before(startsOn) {
		return nil, dErrors.New(dErrors.CodeValidation, "retreat cannot end before it starts")
	}
	return &Retreat{
		ID:        id.NewRetreatID(),
		Name:      name,
		Edition:   edition,
		Status:    StatusDraft,
		StartsOn:  startsOn,
		EndsOn:    endsOn,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *Retreat) IsOpen() bool { return r.Status == StatusOpen }

// CanOpen checks the draft → open transition.
func (r *Retreat) CanOpen() error {
	if !r.Status.CanTransitionTo(StatusOpen) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot open a %s retreat", r.Status)
	}
	return nil
}

// ApplyOpen transitions the retreat to open. Call CanOpen first.
func (r *Retreat) ApplyOpen(now time.Time) {
	r.Status = StatusOpen
	r.UpdatedAt = now
}

// CanClose checks the open → closed transition.
func (r *Retreat) CanClose() error {
	if !r.Status.CanTransitionTo(StatusClosed) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot close a %s retreat", r.Status)
	}
	return nil
}

// ApplyClose transitions the retreat to closed.
func (r *Retreat) ApplyClose(now time.Time) {
	r.Status = StatusClosed
	r.UpdatedAt = now
}
