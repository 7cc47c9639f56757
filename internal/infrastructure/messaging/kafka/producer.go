// Package kafka publishes prediction lifecycle events so downstream
// consumers (usage analytics, model monitoring) can react to completed
// batches without coupling to the HTTP path.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

var (
	ErrProducerClosed = errors.New(errors.ErrCodeInternal, "event producer closed")
	ErrPublishFailed  = errors.New(errors.ErrCodeExternalService, "event publish failed")
)

// PredictionCompletedEvent describes one finished prediction batch.
type PredictionCompletedEvent struct {
	UserID        string    `json:"user_id"`
	MoleculeCount int       `json:"molecule_count"`
	InvalidCount  int       `json:"invalid_count"`
	ModelBackend  string    `json:"model_backend"`
	DurationMS    int64     `json:"duration_ms"`
	CompletedAt   time.Time `json:"completed_at"`
}

// EventPublisher is what the prediction service depends on. The no-op
// publisher backs deployments with Kafka disabled.
type EventPublisher interface {
	PublishPredictionCompleted(ctx context.Context, event PredictionCompletedEvent) error
	Close() error
}

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes events to a Kafka topic.
type Producer struct {
	writer writerInterface
	topic  string
	logger logging.Logger
	closed atomic.Bool
}

// NewProducer builds a Kafka-backed publisher from configuration. Callers
// should have checked cfg.Enabled; a disabled config gets NewNopPublisher.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "kafka producer needs at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New(errors.ErrCodeInternal, "kafka producer needs a topic")
	}

	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  retries,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("kafka producer ready",
		logging.String("topic", cfg.Topic),
		logging.Int("brokers", len(cfg.Brokers)),
	)

	return &Producer{writer: writer, topic: cfg.Topic, logger: log}, nil
}

func (p *Producer) PublishPredictionCompleted(ctx context.Context, event PredictionCompletedEvent) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	payload, err := json.Marshal(&event)
	if err != nil {
		return errors.New(errors.ErrCodeSerialization, "failed to encode prediction event").WithCause(err)
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Time:  event.CompletedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish prediction event",
			logging.String("topic", p.topic),
			logging.String("user_id", event.UserID),
			logging.Err(err),
		)
		return ErrPublishFailed.WithCause(err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (NopPublisher) PublishPredictionCompleted(context.Context, PredictionCompletedEvent) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
