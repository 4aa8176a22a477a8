package models

import (
	"time"

	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

// ServiceStatus is the lifecycle of a service-team registration. Servers are
// invited returning participants, so the lifecycle is just active/inactive.
type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "active"
	ServiceStatusInactive ServiceStatus = "inactive"
)

// ServiceRegistration is one volunteer's enrollment on the serving side of a
// retreat. Service-space roster links reference these rows.
type ServiceRegistration struct {
	ID        id.MemberID   `json:"id"`
	RetreatID id.RetreatID  `json:"retreat_id"`
	Name      string        `json:"name"`
	Surname   string        `json:"surname"`
	Gender    Gender        `json:"gender"`
	City      string        `json:"city,omitempty"`
	Status    ServiceStatus `json:"status"`
	Enabled   bool          `json:"enabled"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewServiceRegistration validates and builds an active service registration.
func NewServiceRegistration(retreatID id.RetreatID, name, surname string, gender Gender, city string, now time.Time) (*ServiceRegistration, error) {
	if retreatID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "retreat id is required")
	}
	if name == "" || surname == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name and surname are required")
	}
	if err := parseGender(gender); err != nil {
		return nil, err
	}
	return &ServiceRegistration{
		ID:        id.NewMemberID(),
		RetreatID: retreatID,
		Name:      name,
		Surname:   surname,
		Gender:    gender,
		City:      city,
		Status:    ServiceStatusActive,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanDeactivate checks that the volunteer is currently active.
func (r *ServiceRegistration) CanDeactivate() error {
	if r.Status != ServiceStatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "service registration is already inactive")
	}
	return nil
}

// ApplyDeactivation marks the volunteer inactive.
func (r *ServiceRegistration) ApplyDeactivation(now time.Time) {
	r.Status = ServiceStatusInactive
	r.UpdatedAt = now
}

// CanReactivate checks that the volunteer is currently inactive.
func (r *ServiceRegistration) CanReactivate() error {
	if r.Status != ServiceStatusInactive {
		return dErrors.New(dErrors.CodeInvariantViolation, "service registration is already active")
	}
	return nil
}

// ApplyReactivation marks the volunteer active again.
func (r *ServiceRegistration) ApplyReactivation(now time.Time) {
	r.Status = ServiceStatusActive
	r.UpdatedAt = now
}
