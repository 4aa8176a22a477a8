// Package models holds the roster domain types shared by the engine, its
// stores, and the transport layer.
package models

import (
	"time"

	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

// Kind selects which of the three roster boards an operation addresses.
// The engine logic is shared; the Kind picks the policy, the link table
// and the member source.
type Kind string

const (
	KindFamily  Kind = "families"
	KindTent    Kind = "tents"
	KindService Kind = "service-spaces"
)

// ParseKind validates a URL segment into a Kind.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindFamily, KindTent, KindService:
		return Kind(raw), nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown roster kind %q", raw)
}

// Gender doubles as a tent category: a tent with Category "male" only takes
// male members.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Role is only meaningful on service-space links.
type Role string

const (
	RoleNone        Role = ""
	RoleCoordinator Role = "coordinator"
	RoleVice        Role = "vice"
	RoleMember      Role = "member"
)

// State is the per-kind concurrency and freeze state owned by a retreat.
// Version is the optimistic token: every accepted reconciliation bumps it by
// exactly one. Locked freezes the whole board regardless of per-unit locks.
type State struct {
	RetreatID id.RetreatID `json:"retreat_id"`
	Kind      Kind         `json:"kind"`
	Version   int64        `json:"version"`
	Locked    bool         `json:"locked"`
}

// Unit is the container being filled: a family, a tent, or a service space.
type Unit struct {
	ID        id.UnitID    `json:"id"`
	RetreatID id.RetreatID `json:"retreat_id"`
	Kind      Kind         `json:"kind"`
	Name      string       `json:"name"`
	// Category constrains membership for tents (gender). Empty means no
	// category constraint.
	Category  Gender `json:"category,omitempty"`
	MinPeople int    `json:"min_people"`
	MaxPeople int    `json:"max_people"`
	// Locked freezes this unit even when the board as a whole is open.
	Locked   bool `json:"locked"`
	Position int  `json:"position"`
}

// Member is the engine's read-only view of a registration. The registration
// module owns the rows; the engine only reads status fields to decide
// eligibility.
type Member struct {
	ID        id.MemberID  `json:"id"`
	RetreatID id.RetreatID `json:"retreat_id"`
	Name      string       `json:"name"`
	Surname   string       `json:"surname"`
	Gender    Gender       `json:"gender"`
	City      string       `json:"city"`
	Status    string       `json:"status"`
	Enabled   bool         `json:"enabled"`
}

// Link is one persisted unit-member assignment. Links are only ever written
// by the engine as part of a whole-unit replace, never patched individually.
type Link struct {
	ID        id.LinkID    `json:"id"`
	RetreatID id.RetreatID `json:"retreat_id"`
	UnitID    id.UnitID    `json:"unit_id"`
	Kind      Kind         `json:"kind"`
	MemberID  id.MemberID  `json:"member_id"`
	Position  int          `json:"position"`
	Role      Role         `json:"role,omitempty"`
}

// MemberSnapshot is one desired assignment inside a submitted snapshot.
type MemberSnapshot struct {
	MemberID id.MemberID `json:"member_id"`
	Position int         `json:"position"`
	Role     Role        `json:"role,omitempty"`
}

// UnitSnapshot is the complete desired membership for one unit. Submitting a
// unit replaces its membership wholesale.
type UnitSnapshot struct {
	UnitID  id.UnitID        `json:"unit_id"`
	Members []MemberSnapshot `json:"members"`
}

// ReconciledEvent is emitted after a successful reconciliation so the
// notification pipeline can fan out.
type ReconciledEvent struct {
	Kind         Kind         `json:"kind"`
	RetreatID    id.RetreatID `json:"retreat_id"`
	Version      int64        `json:"version"`
	UnitsChanged int          `json:"units_changed"`
	Actor        string       `json:"actor,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}
