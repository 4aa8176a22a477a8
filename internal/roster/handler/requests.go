package handler

import (
	"retiro/internal/roster/models"
)

// ReconcileRequest is the whole-board submission. Every listed unit's
// membership is replaced; units not listed are untouched.
type ReconcileRequest struct {
	Version        int64                 `json:"version"`
	Units          []models.UnitSnapshot `json:"units"`
	IgnoreWarnings bool                  `json:"ignore_warnings"`
}

// AssignUnitRequest is the single-unit submission; the unit id comes from
// the URL.
type AssignUnitRequest struct {
	Version        int64                   `json:"version"`
	Members        []models.MemberSnapshot `json:"members"`
	IgnoreWarnings bool                    `json:"ignore_warnings"`
}

// CreateUnitRequest describes a new empty unit.
type CreateUnitRequest struct {
	Name      string        `json:"name"`
	Category  models.Gender `json:"category,omitempty"`
	MinPeople int           `json:"min_people"`
	MaxPeople int           `json:"max_people"`
	Position  int           `json:"position"`
}

// LockRequest toggles a board or unit freeze.
type LockRequest struct {
	Locked bool `json:"locked"`
}
