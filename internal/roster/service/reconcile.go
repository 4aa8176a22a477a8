package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	rostermetrics "retiro/internal/roster/metrics"
	"retiro/internal/roster/models"
	"retiro/internal/roster/policy"
	id "retiro/pkg/domain"
	"retiro/pkg/requestcontext"
)

// Reconcile validates a client-submitted membership snapshot against the
// current board and, when clean, atomically replaces the persisted links.
//
// The pipeline is: version guard, global lock guard, loader, rule pipeline
// (per-unit locks first), applier, response builder. Any blocking finding
// short-circuits with no mutation; overridable warnings block unless
// ignoreWarnings is set. A successful call bumps the roster version by
// exactly one, no matter how many units changed.
func (e *Engine) Reconcile(ctx context.Context, kind models.Kind, retreatID id.RetreatID, version int64, snapshot []models.UnitSnapshot, ignoreWarnings bool) (*models.Result, error) {
	pol, err := e.policies.For(kind)
	if err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "roster.reconcile", trace.WithAttributes(
		attribute.String("roster.kind", string(kind)),
		attribute.String("retreat.id", retreatID.String()),
		attribute.Int("snapshot.units", len(snapshot)),
	))
	defer span.End()

	start := time.Now()
	var (
		result *models.Result
		event  *models.ReconciledEvent
	)
	err = e.tx.RunSerializable(ctx, func(txCtx context.Context) error {
		var txErr error
		result, event, txErr = e.reconcileTx(txCtx, pol, retreatID, version, snapshot, ignoreWarnings)
		return txErr
	})
	if err != nil {
		span.RecordError(err)
		return nil, translateStoreErr(err, "roster")
	}

	outcome := classifyOutcome(result)
	e.metrics.ObserveReconcile(string(kind), outcome, time.Since(start))
	for _, issue := range result.Errors {
		e.metrics.CountIssue(string(issue.Code))
	}
	for _, issue := range result.Warnings {
		e.metrics.CountIssue(string(issue.Code))
	}
	span.SetAttributes(attribute.String("roster.outcome", outcome))

	if event != nil {
		e.emit(ctx, *event)
	}
	return result, nil
}

// AssignUnit is the single-unit edit path (manual selection in the UI). It is
// a one-unit snapshot through the same pipeline, so every invariant of the
// full reconciliation applies.
func (e *Engine) AssignUnit(ctx context.Context, kind models.Kind, retreatID id.RetreatID, version int64, snapshot models.UnitSnapshot, ignoreWarnings bool) (*models.Result, error) {
	return e.Reconcile(ctx, kind, retreatID, version, []models.UnitSnapshot{snapshot}, ignoreWarnings)
}

// reconcileTx runs the guarded pipeline inside the caller's transaction.
// It returns a Result in every non-infrastructure case; the event is non-nil
// only when a mutation was applied.
func (e *Engine) reconcileTx(ctx context.Context, pol policy.Policy, retreatID id.RetreatID, version int64, snapshot []models.UnitSnapshot, ignoreWarnings bool) (*models.Result, *models.ReconciledEvent, error) {
	kind := pol.Kind()

	state, err := e.stores.State.Get(ctx, kind, retreatID)
	if err != nil {
		return nil, nil, err
	}

	// Version guard runs before anything expensive. A stale client reloads
	// and retries; nothing else is validated.
	if version != state.Version {
		issue := models.NewError(models.CodeVersionMismatch,
			fmt.Sprintf("roster is at version %d, submission was based on %d", state.Version, version))
		return &models.Result{Version: state.Version, Errors: []models.Issue{issue}}, nil, nil
	}

	// A board-wide lock rejects unconditionally, even no-op resubmissions.
	if state.Locked {
		issue := models.NewError(models.CodeRosterLocked,
			fmt.Sprintf("the %s board is locked", kind))
		return &models.Result{Version: state.Version, Errors: []models.Issue{issue}}, nil, nil
	}

	ld, err := e.load(ctx, kind, retreatID, snapshot)
	if err != nil {
		return nil, nil, err
	}

	issues, err := e.validate(ctx, pol, ld, snapshot)
	if err != nil {
		return nil, nil, err
	}
	errs, warnings := models.SplitIssues(issues)
	if len(errs) > 0 {
		return &models.Result{Version: state.Version, Errors: errs, Warnings: warnings}, nil, nil
	}
	if len(warnings) > 0 && !ignoreWarnings {
		return &models.Result{Version: state.Version, Warnings: warnings}, nil, nil
	}

	// Last cancellation barrier: after this point we write.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	changed, err := e.apply(ctx, kind, retreatID, ld, snapshot)
	if err != nil {
		return nil, nil, err
	}
	if err := e.stores.State.BumpVersion(ctx, kind, retreatID, state.Version); err != nil {
		return nil, nil, err
	}
	newVersion := state.Version + 1

	units, err := e.render(ctx, kind, retreatID)
	if err != nil {
		return nil, nil, err
	}

	result := &models.Result{
		Version:  newVersion,
		Applied:  true,
		Units:    units,
		Warnings: warnings,
	}
	event := &models.ReconciledEvent{
		Kind:         kind,
		RetreatID:    retreatID,
		Version:      newVersion,
		UnitsChanged: changed,
		Actor:        requestcontext.ActorID(ctx),
		Timestamp:    requestcontext.Now(ctx),
	}
	return result, event, nil
}

func (e *Engine) emit(ctx context.Context, event models.ReconciledEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish roster event",
			"error", err,
			"kind", event.Kind,
			"retreat_id", event.RetreatID,
		)
	}
}

func classifyOutcome(result *models.Result) string {
	switch {
	case result.Applied:
		return rostermetrics.OutcomeApplied
	case hasCode(result.Errors, models.CodeVersionMismatch):
		return rostermetrics.OutcomeStale
	case hasCode(result.Errors, models.CodeRosterLocked) || hasCode(result.Errors, models.CodeUnitLocked):
		return rostermetrics.OutcomeLocked
	case len(result.Errors) > 0:
		return rostermetrics.OutcomeRejected
	default:
		return rostermetrics.OutcomeWarnings
	}
}

func hasCode(issues []models.Issue, code models.IssueCode) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
