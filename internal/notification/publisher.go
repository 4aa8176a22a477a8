package notification

import (
	"context"
	"log/slog"
	"time"

	"retiro/internal/roster/models"
)

// Publisher accepts events from the roster engine and queues them for the
// background worker. Emit never blocks the caller: when the inbox is full
// the event is dropped and counted, which keeps reconciliation latency
// independent of the notification pipeline.
type Publisher struct {
	inbox  chan models.ReconciledEvent
	logger *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the logger used to report dropped events.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher creates a publisher with a buffered inbox. A non-positive
// buffer falls back to a sensible default.
func NewPublisher(buffer int, opts ...PublisherOption) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		inbox:  make(chan models.ReconciledEvent, buffer),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan models.ReconciledEvent {
	return p.inbox
}

// Emit queues an event for delivery. It stamps the timestamp when the
// caller left it zero and drops the event when the inbox is full.
func (p *Publisher) Emit(_ context.Context, event models.ReconciledEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("notification inbox full, dropping event",
			"kind", string(event.Kind),
			"retreat_id", event.RetreatID.String(),
			"version", event.Version,
		)
	}
	return nil
}
