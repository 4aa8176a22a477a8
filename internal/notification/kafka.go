package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"retiro/internal/roster/models"
	"retiro/pkg/platform/circuit"
)

// DefaultTopic is where roster reconciliation events land unless configured
// otherwise.
const DefaultTopic = "retiro.roster.events"

// NewKafkaClient dials the given brokers. Returns nil when no brokers are
// configured so callers can fall back to log-only delivery.
func NewKafkaClient(brokers []string, clientID string) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	if clientID == "" {
		clientID = "retiro"
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates the event topic if it does not exist yet. An existing
// topic is not an error.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32) error {
	if topic == "" {
		topic = DefaultTopic
	}
	if partitions <= 0 {
		partitions = 1
	}
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// KafkaSender publishes events to a Kafka topic as JSON. A circuit breaker
// guards the broker: while the circuit is open events go to the fallback
// sender instead, and the first successful probe closes it again.
type KafkaSender struct {
	client   *kgo.Client
	topic    string
	breaker  *circuit.Breaker
	fallback Sender
	logger   *slog.Logger
}

// NewKafkaSender wraps a connected client. The fallback sender takes over
// while the circuit is open; pass a LogSender at minimum.
func NewKafkaSender(client *kgo.Client, topic string, fallback Sender, logger *slog.Logger) *KafkaSender {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSender{
		client:   client,
		topic:    topic,
		breaker:  circuit.New("kafka-notifications", circuit.WithFailureThreshold(3)),
		fallback: fallback,
		logger:   logger,
	}
}

func (s *KafkaSender) Send(ctx context.Context, event models.ReconciledEvent) error {
	if s.breaker.IsOpen() {
		// Probe the broker with the real event. On failure it still
		// reaches the fallback, so nothing is lost while open.
		if err := s.produce(ctx, event); err != nil {
			s.breaker.RecordFailure()
			return s.sendFallback(ctx, event)
		}
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.Info("kafka circuit closed", "breaker", s.breaker.Name())
		}
		return nil
	}

	if err := s.produce(ctx, event); err != nil {
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.Warn("kafka circuit opened", "breaker", s.breaker.Name(), "error", err)
		}
		if useFallback {
			return s.sendFallback(ctx, event)
		}
		return err
	}
	s.breaker.RecordSuccess()
	return nil
}

func (s *KafkaSender) produce(ctx context.Context, event models.ReconciledEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		// Key by board so consumers see each board's events in order.
		Key:   []byte(fmt.Sprintf("%s:%s", event.Kind, event.RetreatID)),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSender) sendFallback(ctx context.Context, event models.ReconciledEvent) error {
	if s.fallback == nil {
		return nil
	}
	return s.fallback.Send(ctx, event)
}
