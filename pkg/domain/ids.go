// Package domain provides typed identifiers shared across modules.
//
// Each entity gets its own UUID-backed type so the compiler rejects
// cross-entity mixups (passing a UnitID where a MemberID is expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "retiro/pkg/domain-errors"
)

type (
	// RetreatID identifies a retreat, the aggregate root for rosters.
	RetreatID uuid.UUID
	// UnitID identifies a roster unit (family, tent, service space).
	UnitID uuid.UUID
	// MemberID identifies a registration referenced by roster links.
	MemberID uuid.UUID
	// LinkID identifies a single unit-member link row.
	LinkID uuid.UUID
	// PaymentID identifies a recorded payment.
	PaymentID uuid.UUID
)

func (id RetreatID) String() string { return uuid.UUID(id).String() }
func (id UnitID) String() string    { return uuid.UUID(id).String() }
func (id MemberID) String() string  { return uuid.UUID(id).String() }
func (id LinkID) String() string    { return uuid.UUID(id).String() }
func (id PaymentID) String() string { return uuid.UUID(id).String() }

func (id RetreatID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UnitID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id LinkID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Defined types do not inherit uuid.UUID's text marshalling, so each ID
// implements it explicitly; without this the JSON encoding would be a byte array.

func (id RetreatID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id UnitID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id MemberID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id LinkID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id PaymentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *RetreatID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = RetreatID(u)
	return nil
}

func (id *UnitID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UnitID(u)
	return nil
}

func (id *MemberID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = MemberID(u)
	return nil
}

func (id *LinkID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = LinkID(u)
	return nil
}

func (id *PaymentID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = PaymentID(u)
	return nil
}

// NewRetreatID returns a fresh random RetreatID.
func NewRetreatID() RetreatID { return RetreatID(uuid.New()) }

// NewUnitID returns a fresh random UnitID.
func NewUnitID() UnitID { return UnitID(uuid.New()) }

// NewMemberID returns a fresh random MemberID.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// NewLinkID returns a fresh random LinkID.
func NewLinkID() LinkID { return LinkID(uuid.New()) }

// NewPaymentID returns a fresh random PaymentID.
func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil UUID")
	}
	return u, nil
}

// ParseRetreatID validates raw and returns a RetreatID.
func ParseRetreatID(raw string) (RetreatID, error) {
	u, err := parseUUID(raw, "retreat")
	return RetreatID(u), err
}

// ParseUnitID validates raw and returns a UnitID.
func ParseUnitID(raw string) (UnitID, error) {
	u, err := parseUUID(raw, "unit")
	return UnitID(u), err
}

// ParseMemberID validates raw and returns a MemberID.
func ParseMemberID(raw string) (MemberID, error) {
	u, err := parseUUID(raw, "member")
	return MemberID(u), err
}

// ParsePaymentID validates raw and returns a PaymentID.
func ParsePaymentID(raw string) (PaymentID, error) {
	u, err := parseUUID(raw, "payment")
	return PaymentID(u), err
}
