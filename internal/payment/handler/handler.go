// Package handler exposes payment recording endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"retiro/internal/payment/models"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/httputil"
)

// Service defines the payment operations the handler needs.
type Service interface {
	Record(ctx context.Context, regID id.MemberID, amountCents int64, method models.Method, reference string) (*models.Payment, error)
	ListByRegistration(ctx context.Context, regID id.MemberID) ([]models.Payment, error)
}

// Handler wires payment endpoints to the payment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts payment endpoints under the registration they pay for.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registrations/{registrationID}/payments", func(r chi.Router) {
		r.Post("/", h.HandleRecord)
		r.Get("/", h.HandleList)
	})
}

// RecordRequest carries a manual payment entry.
type RecordRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	Reference   string `json:"reference"`
}

func registrationParam(r *http.Request) (id.MemberID, error) {
	regID, err := id.ParseMemberID(chi.URLParam(r, "registrationID"))
	if err != nil {
		return id.MemberID{}, dErrors.New(dErrors.CodeBadRequest, "invalid registration id")
	}
	return regID, nil
}

func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := registrationParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[RecordRequest](w, r)
	if !ok {
		return
	}
	method, err := models.ParseMethod(req.Method)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	payment, err := h.service.Record(ctx, regID, req.AmountCents, method, req.Reference)
	if err != nil {
		h.logger.ErrorContext(ctx, "payment recording failed",
			"registration_id", regID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, payment)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payments, err := h.service.ListByRegistration(r.Context(), regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payments)
}
