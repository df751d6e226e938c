// Package notify publishes bulletin lifecycle changes to Kafka.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/models"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	Logger *logger.Logger
	Now    func() time.Time
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log, Now: time.Now}
}

// Publish writes n keyed by its event id, so all changes to one event land
// on the same partition.
func (p *Producer) Publish(ctx context.Context, n models.EventNotification) error {
	msgBytes, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.EventID),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(n.Action)},
		},
	})
}

// Notify publishes the change and logs the outcome. Failures are not
// returned; the change is already stored.
func (p *Producer) Notify(ctx context.Context, action string, ev models.Event) {
	n := NewNotification(action, ev, p.Now())
	if err := p.Publish(ctx, n); err != nil {
		p.Logger.LogKafka("PUBLISH_FAILED", p.Topic, fmt.Sprintf("%s for event %s: %v", action, ev.ID, err))
		return
	}
	p.Logger.LogKafka("PUBLISHED", p.Topic, fmt.Sprintf("%s for event %s", action, ev.ID))
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NewNotification describes a change to ev that happened at now.
func NewNotification(action string, ev models.Event, now time.Time) models.EventNotification {
	n := models.EventNotification{
		Action:     action,
		EventID:    ev.ID,
		Title:      ev.Title,
		Approved:   ev.Approved,
		OccurredAt: now.UTC(),
	}
	if !ev.Timestamp.IsZero() {
		ts := ev.Timestamp
		n.Timestamp = &ts
	}
	return n
}
