// Package models holds declared relationships between registrants.
package models

import (
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

// Kind classifies a declared relationship. Family composition rules consult
// both kinds; spouses and direct relatives may not share a family.
type Kind string

const (
	KindSpouse         Kind = "spouse"
	KindDirectRelative Kind = "direct-relative"
)

// ParseKind validates a relationship kind.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindSpouse, KindDirectRelative:
		return Kind(raw), nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown relationship kind %q", raw)
}

// Pair is an undirected relationship between two people. PersonA always
// sorts before PersonB so each pair is stored exactly once.
type Pair struct {
	PersonA id.MemberID `json:"person_a"`
	PersonB id.MemberID `json:"person_b"`
	Kind    Kind        `json:"kind"`
}

// NewPair normalizes the order and rejects self-pairs.
func NewPair(a, b id.MemberID, kind Kind) (Pair, error) {
	if a == b {
		return Pair{}, dErrors.New(dErrors.CodeValidation, "a person cannot relate to themselves")
	}
	if b.String() < a.String() {
		a, b = b, a
	}
	return Pair{PersonA: a, PersonB: b, Kind: kind}, nil
}
