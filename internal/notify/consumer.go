package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/models"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	Reader MessageReader
	Logger *logger.Logger
}

// NewConsumer reads topic as part of groupID. An empty groupID reads the
// single partition from the latest offset.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	if groupID == "" {
		cfg.StartOffset = kafka.LastOffset
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Consumer{Reader: kafka.NewReader(cfg), Logger: log}
}

// Run delivers notifications to handle until ctx is cancelled. Messages
// that do not decode are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handle func(models.EventNotification)) error {
	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		var n models.EventNotification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			c.Logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal notification at offset %d: %v", msg.Offset, err))
			continue
		}
		handle(n)
	}
}

func (c *Consumer) Close() error {
	return c.Reader.Close()
}
