// Package models holds manually recorded payments.
package models

import (
	"time"

	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

// Method is how the money arrived. Payments are recorded by back-office
// staff; there is no gateway integration.
type Method string

const (
	MethodCash     Method = "cash"
	MethodPix      Method = "pix"
	MethodTransfer Method = "transfer"
)

// ParseMethod validates a payment method.
func ParseMethod(raw string) (Method, error) {
	switch Method(raw) {
	case MethodCash, MethodPix, MethodTransfer:
		return Method(raw), nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown payment method %q", raw)
}

// Payment is one recorded payment against a participant registration.
type Payment struct {
	ID             id.PaymentID `json:"id"`
	RegistrationID id.MemberID  `json:"registration_id"`
	AmountCents    int64        `json:"amount_cents"`
	Method         Method       `json:"method"`
	Reference      string       `json:"reference,omitempty"`
	RecordedBy     string       `json:"recorded_by,omitempty"`
	RecordedAt     time.Time    `json:"recorded_at"`
}

// New validates and builds a payment.
func New(registrationID id.MemberID, amountCents int64, method Method, reference, recordedBy string, now time.Time) (*Payment, error) {
	if registrationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "registration id is required")
	}
	if amountCents <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "payment amount must be positive")
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	return &Payment{
		ID:             id.NewPaymentID(),
		RegistrationID: registrationID,
		AmountCents:    amountCents,
		Method:         method,
		Reference:      reference,
		RecordedBy:     recordedBy,
		RecordedAt:     now,
	}, nil
}
