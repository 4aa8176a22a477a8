// Package handler exposes registration endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"retiro/internal/registration/models"
	"retiro/internal/registration/service"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/httputil"
)

// Service defines the registration operations the handler needs.
type Service interface {
	RegisterParticipant(ctx context.Context, input service.RegisterInput) (*models.Registration, error)
	RegisterServer(ctx context.Context, input service.RegisterInput) (*models.ServiceRegistration, error)
	GetParticipant(ctx context.Context, regID id.MemberID) (*models.Registration, error)
	ListParticipants(ctx context.Context, retreatID id.RetreatID) ([]models.Registration, error)
	ListServers(ctx context.Context, retreatID id.RetreatID) ([]models.ServiceRegistration, error)
	Confirm(ctx context.Context, regID id.MemberID) (*models.Registration, error)
	Cancel(ctx context.Context, regID id.MemberID) (*models.Registration, error)
	DeactivateServer(ctx context.Context, regID id.MemberID) (*models.ServiceRegistration, error)
	ReactivateServer(ctx context.Context, regID id.MemberID) (*models.ServiceRegistration, error)
}

// Handler wires registration endpoints to the registration service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registration endpoints. Participant registrations hang off
// their retreat; status transitions address the registration directly.
func (h *Handler) Register(r chi.Router) {
	r.Route("/retreats/{retreatID}/registrations", func(r chi.Router) {
		r.Post("/", h.HandleRegisterParticipant)
		r.Get("/", h.HandleListParticipants)
	})
	r.Route("/retreats/{retreatID}/servers", func(r chi.Router) {
		r.Post("/", h.HandleRegisterServer)
		r.Get("/", h.HandleListServers)
	})
	r.Route("/registrations/{registrationID}", func(r chi.Router) {
		r.Get("/", h.HandleGetParticipant)
		r.Post("/confirm", h.HandleConfirm)
		r.Post("/cancel", h.HandleCancel)
	})
	r.Route("/servers/{registrationID}", func(r chi.Router) {
		r.Post("/deactivate", h.HandleDeactivateServer)
		r.Post("/reactivate", h.HandleReactivateServer)
	})
}

// RegisterRequest carries the fields shared by both registration sides.
type RegisterRequest struct {
	Name    string        `json:"name"`
	Surname string        `json:"surname"`
	Gender  models.Gender `json:"gender"`
	City    string        `json:"city"`
}

func retreatParam(r *http.Request) (id.RetreatID, error) {
	retreatID, err := id.ParseRetreatID(chi.URLParam(r, "retreatID"))
	if err != nil {
		return id.RetreatID{}, dErrors.New(dErrors.CodeBadRequest, "invalid retreat id")
	}
	return retreatID, nil
}

func registrationParam(r *http.Request) (id.MemberID, error) {
	regID, err := id.ParseMemberID(chi.URLParam(r, "registrationID"))
	if err != nil {
		return id.MemberID{}, dErrors.New(dErrors.CodeBadRequest, "invalid registration id")
	}
	return regID, nil
}

func (h *Handler) HandleRegisterParticipant(w http.ResponseWriter, r *http.Request) {
	retreatID, err := retreatParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[RegisterRequest](w, r)
	if !ok {
		return
	}
	reg, err := h.service.RegisterParticipant(r.Context(), service.RegisterInput{
		RetreatID: retreatID,
		Name:      req.Name,
		Surname:   req.Surname,
		Gender:    req.Gender,
		City:      req.City,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, reg)
}

func (h *Handler) HandleRegisterServer(w http.ResponseWriter, r *http.Request) {
	retreatID, err := retreatParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[RegisterRequest](w, r)
	if !ok {
		return
	}
	reg, err := h.service.RegisterServer(r.Context(), service.RegisterInput{
		RetreatID: retreatID,
		Name:      req.Name,
		Surname:   req.Surname,
		Gender:    req.Gender,
		City:      req.City,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, reg)
}

func (h *Handler) HandleListParticipants(w http.ResponseWriter, r *http.Request) {
	retreatID, err := retreatParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	regs, err := h.service.ListParticipants(r.Context(), retreatID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, regs)
}

func (h *Handler) HandleListServers(w http.ResponseWriter, r *http.Request) {
	retreatID, err := retreatParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	regs, err := h.service.ListServers(r.Context(), retreatID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, regs)
}

func (h *Handler) HandleGetParticipant(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, err := h.service.GetParticipant(r.Context(), regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	h.participantTransition(w, r, h.service.Confirm)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.participantTransition(w, r, h.service.Cancel)
}

func (h *Handler) participantTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.MemberID) (*models.Registration, error)) {
	regID, err := registrationParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, err := op(r.Context(), regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) HandleDeactivateServer(w http.ResponseWriter, r *http.Request) {
	h.serverTransition(w, r, h.service.DeactivateServer)
}

func (h *Handler) HandleReactivateServer(w http.ResponseWriter, r *http.Request) {
	h.serverTransition(w, r, h.service.ReactivateServer)
}

func (h *Handler) serverTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.MemberID) (*models.ServiceRegistration, error)) {
	regID, err := registrationParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, err := op(r.Context(), regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}
