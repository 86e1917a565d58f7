package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
)

// Config holds the Kafka producer settings
type Config struct {
	Brokers []string
	Topic   string
}

// Envelope is the JSON document written to the topic
type Envelope struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes domain events to Kafka as JSON envelopes
type Publisher struct {
	writer MessageWriter
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher backed by an async kafka.Writer
func NewKafkaPublisher(cfg Config) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("failed to deliver %d event(s): %v", len(messages), err)
			}
		},
	}
	return NewPublisher(writer)
}

// NewPublisher wraps any message writer
func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer, now: time.Now}
}

// Publish writes one event. key selects the partition so events for the
// same entity stay ordered.
func (p *Publisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	occurredAt := p.now().UTC()
	data, err := json.Marshal(Envelope{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		OccurredAt: occurredAt,
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  occurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	logger.Debug("published %s event for %s", eventType, key)
	return nil
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
