// Package service implements the versioned roster reconciliation engine.
//
// One engine serves all three boards (families, tents, service spaces); the
// per-kind differences are injected as policies. A reconciliation attempt is
// all-or-nothing: the version guard, the lock guard, the loader, the rule
// pipeline and the applier run inside one Serializable transaction, and any
// blocking finding leaves the persisted state untouched.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	rostermetrics "retiro/internal/roster/metrics"
	"retiro/internal/roster/models"
	"retiro/internal/roster/policy"
	"retiro/internal/roster/ports"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
	"retiro/pkg/platform/sentinel"
)

// Stores bundles the persistence ports the engine consumes.
type Stores struct {
	State   ports.StateStore
	Units   ports.UnitStore
	Links   ports.LinkStore
	Members ports.MemberStore
}

// Engine is the reconciliation service. Construct with New.
type Engine struct {
	stores    Stores
	policies  *policy.Set
	tx        ports.TxRunner
	logger    *slog.Logger
	metrics   *rostermetrics.Metrics
	publisher ports.EventPublisher
	cache     ports.BoardCache
	cacheTTL  time.Duration
	tracer    trace.Tracer
}

// Option configures optional engine collaborators.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *rostermetrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithPublisher wires the notification pipeline. Emission failures are
// logged, never surfaced: the mutation already committed.
func WithPublisher(p ports.EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithBoardCache caches rendered boards. Keys embed the roster version, so a
// successful reconciliation invalidates by construction.
func WithBoardCache(c ports.BoardCache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// New constructs an Engine.
func New(stores Stores, policies *policy.Set, txRunner ports.TxRunner, opts ...Option) (*Engine, error) {
	if stores.State == nil || stores.Units == nil || stores.Links == nil || stores.Members == nil {
		return nil, fmt.Errorf("all roster stores are required")
	}
	if policies == nil {
		return nil, fmt.Errorf("policy set is required")
	}
	if txRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}

	e := &Engine{
		stores:   stores,
		policies: policies,
		tx:       txRunner,
		logger:   slog.Default(),
		tracer:   otel.Tracer("retiro/roster"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetBoardLock freezes or thaws a whole board.
func (e *Engine) SetBoardLock(ctx context.Context, kind models.Kind, retreatID id.RetreatID, locked bool) error {
	if _, err := e.policies.For(kind); err != nil {
		return err
	}
	if err := e.stores.State.SetLocked(ctx, kind, retreatID, locked); err != nil {
		return translateStoreErr(err, "roster state")
	}
	e.logger.InfoContext(ctx, "roster board lock changed",
		"kind", kind, "retreat_id", retreatID, "locked", locked)
	return nil
}

// SetUnitLock freezes or thaws a single unit independently of the board
// lock. The unit must belong to the named board; a unit id from another
// retreat comes back not found.
func (e *Engine) SetUnitLock(ctx context.Context, kind models.Kind, retreatID id.RetreatID, unitID id.UnitID, locked bool) error {
	if _, err := e.policies.For(kind); err != nil {
		return err
	}
	if err := e.stores.Units.SetLocked(ctx, kind, retreatID, unitID, locked); err != nil {
		return translateStoreErr(err, "unit")
	}
	return nil
}

// CreateUnit adds an empty unit to a board.
func (e *Engine) CreateUnit(ctx context.Context, unit *models.Unit) (*models.Unit, error) {
	pol, err := e.policies.For(unit.Kind)
	if err != nil {
		return nil, err
	}
	if unit.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "unit name is required")
	}
	if unit.RetreatID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "retreat id is required")
	}
	if unit.Kind == models.KindFamily {
		// Family capacity is fixed by policy; keep the row consistent with it.
		unit.MinPeople, unit.MaxPeople = pol.Capacity(*unit)
	}
	if unit.MaxPeople <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "unit capacity must be positive")
	}
	if unit.MinPeople < 0 || unit.MinPeople > unit.MaxPeople {
		return nil, dErrors.New(dErrors.CodeValidation, "unit minimum cannot exceed capacity")
	}
	if unit.ID.IsNil() {
		unit.ID = id.NewUnitID()
	}
	if err := e.stores.Units.Create(ctx, unit); err != nil {
		return nil, translateStoreErr(err, "unit")
	}
	return unit, nil
}

// translateStoreErr maps infrastructure sentinels onto domain errors at the
// service boundary. Unknown errors pass through wrapped so transports treat
// them as transient.
func translateStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent edit detected, retry the operation")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, what+" store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
	}
}
