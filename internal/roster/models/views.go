package models

import (
	id "retiro/pkg/domain"
)

// MemberView is one rendered row on a roster board.
type MemberView struct {
	ID       id.MemberID `json:"id"`
	Name     string      `json:"name"`
	Surname  string      `json:"surname"`
	Gender   Gender      `json:"gender"`
	City     string      `json:"city,omitempty"`
	Position int         `json:"position"`
	Role     Role        `json:"role,omitempty"`
}

// UnitView is one rendered unit with its current occupancy.
type UnitView struct {
	ID        id.UnitID    `json:"id"`
	Name      string       `json:"name"`
	Category  Gender       `json:"category,omitempty"`
	MinPeople int          `json:"min_people"`
	MaxPeople int          `json:"max_people"`
	Locked    bool         `json:"locked"`
	Occupancy int          `json:"occupancy"`
	Members   []MemberView `json:"members"`
}

// Result is the engine's answer to a reconciliation attempt.
//
// Exactly one of three shapes comes back:
//   - applied:   Version bumped by one, Units populated, Errors/Warnings empty
//     (or Warnings populated when the caller overrode them)
//   - errors:    Version unchanged, Units empty, Errors populated
//   - warnings:  Version unchanged, Units empty, Warnings populated and the
//     caller may resubmit with the override flag
type Result struct {
	Version  int64      `json:"version"`
	Applied  bool       `json:"applied"`
	Units    []UnitView `json:"units,omitempty"`
	Errors   []Issue    `json:"errors,omitempty"`
	Warnings []Issue    `json:"warnings,omitempty"`
}

// Board is the read-only roster view served to clients before they edit.
type Board struct {
	RetreatID id.RetreatID `json:"retreat_id"`
	Kind      Kind         `json:"kind"`
	Version   int64        `json:"version"`
	Locked    bool         `json:"locked"`
	Units     []UnitView   `json:"units"`
}
