package notification

import (
	"context"
	"log/slog"

	"retiro/internal/roster/models"
)

// Worker drains the publisher inbox and forwards each event to a Sender.
// Delivery errors are logged, not returned: a broken sink must not kill the
// worker loop, and the Kafka sender already degrades through its breaker.
type Worker struct {
	inbox  <-chan models.ReconciledEvent
	sender Sender
	logger *slog.Logger
}

func NewWorker(inbox <-chan models.ReconciledEvent, sender Sender, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{inbox: inbox, sender: sender, logger: logger}
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sender.Send(ctx, event); err != nil {
				w.logger.Error("notification delivery failed",
					"kind", string(event.Kind),
					"retreat_id", event.RetreatID.String(),
					"error", err,
				)
			}
		}
	}
}
