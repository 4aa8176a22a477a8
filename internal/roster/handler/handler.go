// Package handler exposes the roster boards over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"retiro/internal/roster/models"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/httputil"
	"retiro/pkg/requestcontext"
)

// Service defines the roster operations the handler needs.
type Service interface {
	Board(ctx context.Context, kind models.Kind, retreatID id.RetreatID) (*models.Board, error)
	Reconcile(ctx context.Context, kind models.Kind, retreatID id.RetreatID, version int64, snapshot []models.UnitSnapshot, ignoreWarnings bool) (*models.Result, error)
	AssignUnit(ctx context.Context, kind models.Kind, retreatID id.RetreatID, version int64, snapshot models.UnitSnapshot, ignoreWarnings bool) (*models.Result, error)
	CreateUnit(ctx context.Context, unit *models.Unit) (*models.Unit, error)
	SetBoardLock(ctx context.Context, kind models.Kind, retreatID id.RetreatID, locked bool) error
	SetUnitLock(ctx context.Context, kind models.Kind, retreatID id.RetreatID, unitID id.UnitID, locked bool) error
}

// Handler wires roster endpoints to the reconciliation engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a roster handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts roster endpoints on the router. All of them operate on one
// board, addressed by retreat and kind.
func (h *Handler) Register(r chi.Router) {
	r.Route("/retreats/{retreatID}/rosters/{kind}", func(r chi.Router) {
		r.Get("/", h.HandleBoard)
		r.Put("/", h.HandleReconcile)
		r.Post("/lock", h.HandleBoardLock)
		r.Post("/units", h.HandleCreateUnit)
		r.Put("/units/{unitID}", h.HandleAssignUnit)
		r.Post("/units/{unitID}/lock", h.HandleUnitLock)
	})
}

// boardScope parses the retreat and kind segments shared by every endpoint.
func boardScope(r *http.Request) (models.Kind, id.RetreatID, error) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", id.RetreatID{}, err
	}
	retreatID, err := id.ParseRetreatID(chi.URLParam(r, "retreatID"))
	if err != nil {
		return "", id.RetreatID{}, dErrors.New(dErrors.CodeBadRequest, "invalid retreat id")
	}
	return kind, retreatID, nil
}

// HandleBoard handles GET /retreats/{retreatID}/rosters/{kind}.
func (h *Handler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, retreatID, err := boardScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	board, err := h.service.Board(ctx, kind, retreatID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load roster board",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"retreat_id", retreatID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, board)
}

// HandleReconcile handles PUT /retreats/{retreatID}/rosters/{kind}.
//
// Validation findings come back as data in the result body with status 200;
// only infrastructure failures produce an error status. The client inspects
// `applied` plus the errors/warnings lists.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	kind, retreatID, err := boardScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[ReconcileRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.Reconcile(ctx, kind, retreatID, req.Version, req.Units, req.IgnoreWarnings)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconciliation failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"retreat_id", retreatID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "roster reconciled",
		"request_id", requestcontext.RequestID(ctx),
		"kind", kind,
		"retreat_id", retreatID,
		"applied", result.Applied,
		"version", result.Version,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleAssignUnit handles PUT /retreats/{retreatID}/rosters/{kind}/units/{unitID}.
func (h *Handler) HandleAssignUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, retreatID, err := boardScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	unitID, err := id.ParseUnitID(chi.URLParam(r, "unitID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid unit id"))
		return
	}
	req, ok := httputil.Decode[AssignUnitRequest](w, r)
	if !ok {
		return
	}

	snap := models.UnitSnapshot{UnitID: unitID, Members: req.Members}
	result, err := h.service.AssignUnit(ctx, kind, retreatID, req.Version, snap, req.IgnoreWarnings)
	if err != nil {
		h.logger.ErrorContext(ctx, "unit assignment failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"unit_id", unitID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleCreateUnit handles POST /retreats/{retreatID}/rosters/{kind}/units.
func (h *Handler) HandleCreateUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, retreatID, err := boardScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[CreateUnitRequest](w, r)
	if !ok {
		return
	}

	unit, err := h.service.CreateUnit(ctx, &models.Unit{
		RetreatID: retreatID,
		Kind:      kind,
		Name:      req.Name,
		Category:  req.Category,
		MinPeople: req.MinPeople,
		MaxPeople: req.MaxPeople,
		Position:  req.Position,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, unit)
}

// HandleBoardLock handles POST /retreats/{retreatID}/rosters/{kind}/lock.
func (h *Handler) HandleBoardLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, retreatID, err := boardScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[LockRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.SetBoardLock(ctx, kind, retreatID, req.Locked); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnitLock handles POST /retreats/{retreatID}/rosters/{kind}/units/{unitID}/lock.
func (h *Handler) HandleUnitLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, retreatID, err := boardScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	unitID, err := id.ParseUnitID(chi.URLParam(r, "unitID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid unit id"))
		return
	}
	req, ok := httputil.Decode[LockRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.SetUnitLock(ctx, kind, retreatID, unitID, req.Locked); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
