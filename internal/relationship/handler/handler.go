// Package handler exposes kinship declaration endpoints. Declared pairs feed
// the family composition checks during roster reconciliation.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"retiro/internal/relationship/models"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/httputil"
)

// Service defines the relationship operations the handler needs.
type Service interface {
	Declare(ctx context.Context, a, b id.MemberID, kind models.Kind) error
	Revoke(ctx context.Context, a, b id.MemberID, kind models.Kind) error
}

// Handler wires relationship endpoints to the relationship service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/relationships", func(r chi.Router) {
		r.Post("/", h.HandleDeclare)
		r.Delete("/", h.HandleRevoke)
	})
}

// PairRequest names two registrations and the bond between them.
type PairRequest struct {
	PersonA string `json:"person_a"`
	PersonB string `json:"person_b"`
	Kind    string `json:"kind"`
}

func (req PairRequest) parse() (a, b id.MemberID, kind models.Kind, err error) {
	a, err = id.ParseMemberID(req.PersonA)
	if err != nil {
		return a, b, kind, dErrors.New(dErrors.CodeBadRequest, "invalid person_a id")
	}
	b, err = id.ParseMemberID(req.PersonB)
	if err != nil {
		return a, b, kind, dErrors.New(dErrors.CodeBadRequest, "invalid person_b id")
	}
	kind, err = models.ParseKind(req.Kind)
	return a, b, kind, err
}

func (h *Handler) HandleDeclare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[PairRequest](w, r)
	if !ok {
		return
	}
	a, b, kind, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Declare(ctx, a, b, kind); err != nil {
		h.logger.ErrorContext(ctx, "relationship declaration failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[PairRequest](w, r)
	if !ok {
		return
	}
	a, b, kind, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Revoke(ctx, a, b, kind); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
