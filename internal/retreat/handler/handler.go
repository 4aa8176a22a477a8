// Package handler exposes retreat lifecycle endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"retiro/internal/retreat/models"
	"retiro/internal/retreat/service"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/httputil"
)

// Service defines the retreat operations the handler needs.
type Service interface {
	Create(ctx context.Context, input service.CreateInput) (*models.Retreat, error)
	Get(ctx context.Context, retreatID id.RetreatID) (*models.Retreat, error)
	List(ctx context.Context) ([]models.Retreat, error)
	Open(ctx context.Context, retreatID id.RetreatID) (*models.Retreat, error)
	Close(ctx context.Context, retreatID id.RetreatID) (*models.Retreat, error)
}

// Handler wires retreat endpoints to the retreat service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts retreat endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/retreats", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{retreatID}", h.HandleGet)
		r.Post("/{retreatID}/open", h.HandleOpen)
		r.Post("/{retreatID}/close", h.HandleClose)
	})
}

// CreateRequest carries the retreat fields; dates are day-granular.
type CreateRequest struct {
	Name     string `json:"name"`
	Edition  int    `json:"edition"`
	StartsOn string `json:"starts_on"`
	EndsOn   string `json:"ends_on"`
}

const dateLayout = "2006-01-02"

func (r CreateRequest) toInput() (service.CreateInput, error) {
	startsOn, err := time.Parse(dateLayout, r.StartsOn)
	if err != nil {
		return service.CreateInput{}, dErrors.New(dErrors.CodeBadRequest, "starts_on must be YYYY-MM-DD")
	}
	endsOn, err := time.Parse(dateLayout, r.EndsOn)
	if err != nil {
		return service.CreateInput{}, dErrors.New(dErrors.CodeBadRequest, "ends_on must be YYYY-MM-DD")
	}
	return service.CreateInput{Name: r.Name, Edition: r.Edition, StartsOn: startsOn, EndsOn: endsOn}, nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateRequest](w, r)
	if !ok {
		return
	}
	input, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	retreat, err := h.service.Create(ctx, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, retreat)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	retreats, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, retreats)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	retreatID, err := id.ParseRetreatID(chi.URLParam(r, "retreatID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid retreat id"))
		return
	}
	retreat, err := h.service.Get(r.Context(), retreatID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, retreat)
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Open)
}

func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Close)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.RetreatID) (*models.Retreat, error)) {
	retreatID, err := id.ParseRetreatID(chi.URLParam(r, "retreatID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid retreat id"))
		return
	}
	retreat, err := op(r.Context(), retreatID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, retreat)
}
