// Package kafka streams committed domain events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/IBM/sarama"
)

// NewSyncProducer waits for all in-sync replicas and retries five times.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

// Envelope is the message value written for each event.
type Envelope struct {
	Name        string             `json:"name"`
	AggregateID string             `json:"aggregateId"`
	OccurredAt  time.Time          `json:"occurredAt"`
	Payload     kernel.DomainEvent `json:"payload"`
}

// EventPublisher writes one message per event keyed by aggregate id, so all
// changes of one order land on one partition in commit order.
type EventPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewEventPublisher(producer sarama.SyncProducer, topic string, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "kafka_event_publisher"),
	}
}

// Handle matches the event bus subscriber signature.
func (p *EventPublisher) Handle(ctx context.Context, event kernel.DomainEvent) error {
	value, err := json.Marshal(Envelope{
		Name:        event.EventName(),
		AggregateID: event.AggregateID().String(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.AggregateID().String()),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-name"), Value: []byte(event.EventName())},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.DebugContext(ctx, "event published",
		"event", event.EventName(),
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}
