package models

import (
	id "retiro/pkg/domain"
)

// IssueCode is the stable identifier a client uses to highlight exact rows.
// Codes never change meaning once shipped; the UI keys translations on them.
type IssueCode string

const (
	CodeVersionMismatch       IssueCode = "VERSION_MISMATCH"
	CodeRosterLocked          IssueCode = "ROSTER_LOCKED"
	CodeUnitLocked            IssueCode = "UNIT_LOCKED"
	CodeUnknownUnit           IssueCode = "UNKNOWN_UNIT"
	CodeUnknownMember         IssueCode = "UNKNOWN_MEMBER"
	CodeWrongRetreat          IssueCode = "WRONG_RETREAT"
	CodeDuplicateRegistration IssueCode = "DUPLICATE_REGISTRATION"
	CodeDuplicateLeader       IssueCode = "DUPLICATE_LEADER"
	CodeOverCapacity          IssueCode = "OVER_CAPACITY"
	CodeBelowCapacity         IssueCode = "BELOW_CAPACITY"
	CodeWrongCategory         IssueCode = "WRONG_CATEGORY"
	CodeInvalidMember         IssueCode = "INVALID_MEMBER"
	CodeCompositionInvalid    IssueCode = "COMPOSITION_INVALID"
	CodeRelationshipConflict  IssueCode = "RELATIONSHIP_CONFLICT"
	CodeSameSurname           IssueCode = "SAME_SURNAME"
	CodeSameCity              IssueCode = "SAME_CITY"
)

// Severity splits blocking errors from overridable warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding. Errors block persistence
// unconditionally; warnings block only until the caller resubmits with the
// ignore-warnings override.
type Issue struct {
	Code     IssueCode `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	// UnitID is set when the finding concerns one unit; board-wide findings
	// (stale version, global lock) leave it nil.
	UnitID *id.UnitID `json:"unit_id,omitempty"`
	// MemberIDs lists the implicated rows so the UI can highlight them.
	MemberIDs []id.MemberID `json:"member_ids,omitempty"`
}

// NewError builds a blocking issue.
func NewError(code IssueCode, message string) Issue {
	return Issue{Code: code, Severity: SeverityError, Message: message}
}

// NewWarning builds an overridable issue.
func NewWarning(code IssueCode, message string) Issue {
	return Issue{Code: code, Severity: SeverityWarning, Message: message}
}

// ForUnit pins the issue to a unit.
func (i Issue) ForUnit(unitID id.UnitID) Issue {
	i.UnitID = &unitID
	return i
}

// WithMembers records the implicated member rows.
func (i Issue) WithMembers(memberIDs ...id.MemberID) Issue {
	i.MemberIDs = append(i.MemberIDs, memberIDs...)
	return i
}

// SplitIssues partitions findings by severity.
func SplitIssues(issues []Issue) (errors, warnings []Issue) {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			errors = append(errors, issue)
		} else {
			warnings = append(warnings, issue)
		}
	}
	return errors, warnings
}

// HasErrors reports whether any finding is blocking.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
