package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() PredictionCompletedEvent {
	return PredictionCompletedEvent{
		UserID:        "user-1",
		MoleculeCount: 10,
		InvalidCount:  2,
		ModelBackend:  "onnx",
		DurationMS:    125,
		CompletedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestProducerPublishPredictionCompleted(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "predictions.completed", logger: logging.NewNopLogger()}

	require.NoError(t, p.PublishPredictionCompleted(context.Background(), sampleEvent()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, []byte("user-1"), msg.Key)

	var decoded PredictionCompletedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, sampleEvent(), decoded)
}

func TestProducerPublishFailure(t *testing.T) {
	w := &fakeWriter{err: assert.AnError}
	p := &Producer{writer: w, topic: "predictions.completed", logger: logging.NewNopLogger()}

	err := p.PublishPredictionCompleted(context.Background(), sampleEvent())
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestProducerClosedRejectsPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "predictions.completed", logger: logging.NewNopLogger()}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.PublishPredictionCompleted(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, ErrProducerClosed)

	// Second close is a no-op.
	assert.NoError(t, p.Close())
}

func TestNewProducerValidation(t *testing.T) {
	log := logging.NewNopLogger()

	_, err := NewProducer(config.KafkaConfig{Topic: "t"}, log)
	assert.Error(t, err)

	_, err = NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, log)
	assert.Error(t, err)

	p, err := NewProducer(config.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "predictions.completed",
	}, log)
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	p := NewNopPublisher()
	assert.NoError(t, p.PublishPredictionCompleted(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
