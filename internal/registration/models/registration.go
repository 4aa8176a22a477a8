// Package models holds participant and service registrations. Roster links
// reference these rows; the roster engine reads them as members.
package models

import (
	"time"

	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

// Status is the participant registration lifecycle state.
//
// Transitions: pending → confirmed → paid, and anything but paid → cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// CanTransitionTo reports whether the lifecycle allows the move.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusPaid || next == StatusCancelled
	default:
		return false
	}
}

// Gender of a registrant.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func parseGender(raw Gender) error {
	if raw != GenderMale && raw != GenderFemale {
		return dErrors.Newf(dErrors.CodeValidation, "unknown gender %q", raw)
	}
	return nil
}

// Registration is one participant's enrollment in a retreat.
//
// Invariants:
//   - Name and Surname are non-empty
//   - Gender is male or female (tents are gender-segregated)
//   - Status transitions follow the lifecycle above
//   - A disabled registration keeps its status but is never rosterable
type Registration struct {
	ID        id.MemberID  `json:"id"`
	RetreatID id.RetreatID `json:"retreat_id"`
	Name      string       `json:"name"`
	Surname   string       `json:"surname"`
	Gender    Gender       `json:"gender"`
	City      string       `json:"city,omitempty"`
	Status    Status       `json:"status"`
	Enabled   bool         `json:"enabled"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewRegistration validates and builds a pending registration.
func NewRegistration(retreatID id.RetreatID, name, surname string, gender Gender, city string, now time.Time) (*Registration, error) {
	if retreatID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "retreat id is required")
	}
	if name == "" || surname == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name and surname are required")
	}
	if err := parseGender(gender); err != nil {
		return nil, err
	}
	return &Registration{
		ID:        id.NewMemberID(),
		RetreatID: retreatID,
		Name:      name,
		Surname:   surname,
		Gender:    gender,
		City:      city,
		Status:    StatusPending,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanConfirm checks the pending → confirmed transition.
func (r *Registration) CanConfirm() error {
	if !r.Status.CanTransitionTo(StatusConfirmed) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot confirm a %s registration", r.Status)
	}
	return nil
}

// ApplyConfirm transitions to confirmed. Call CanConfirm first.
func (r *Registration) ApplyConfirm(now time.Time) {
	r.Status = StatusConfirmed
	r.UpdatedAt = now
}

// CanMarkPaid checks the confirmed → paid transition. Payment recording is
// the only caller; a pending registration must confirm first.
func (r *Registration) CanMarkPaid() error {
	if !r.Status.CanTransitionTo(StatusPaid) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot record a payment for a %s registration", r.Status)
	}
	return nil
}

// ApplyMarkPaid transitions to paid.
func (r *Registration) ApplyMarkPaid(now time.Time) {
	r.Status = StatusPaid
	r.UpdatedAt = now
}

// CanCancel checks that the registration is still cancellable.
func (r *Registration) CanCancel() error {
	if !r.Status.CanTransitionTo(StatusCancelled) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot cancel a %s registration", r.Status)
	}
	return nil
}

// ApplyCancel transitions to cancelled and disables the registration so it
// drops out of roster eligibility immediately.
func (r *Registration) ApplyCancel(now time.Time) {
	r.Status = StatusCancelled
	r.Enabled = false
	r.UpdatedAt = now
}
