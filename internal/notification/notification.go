// Package notification fans reconciliation events out to interested parties.
// The roster engine hands events to a Publisher on its hot path; a Worker
// drains them in the background and forwards each to a Sender, so a slow or
// dead broker never stalls a reconcile request.
package notification

import (
	"context"
	"log/slog"

	"retiro/internal/roster/models"
)

// Sender delivers a single reconciliation event to its destination.
type Sender interface {
	Send(ctx context.Context, event models.ReconciledEvent) error
}

// LogSender writes events to the structured log. It is the fallback sink
// when no broker is configured and the terminal fallback when the Kafka
// circuit is open.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, event models.ReconciledEvent) error {
	s.logger.Info("roster reconciled",
		"kind", string(event.Kind),
		"retreat_id", event.RetreatID.String(),
		"version", event.Version,
		"units_changed", event.UnitsChanged,
		"actor", event.Actor,
	)
	return nil
}
