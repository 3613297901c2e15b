// Package kafka publishes thumbnail lifecycle events to the event stream.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	segmentio "github.com/segmentio/kafka-go"

	"github.com/civic-os/file-pipeline/internal/entity"
	"github.com/civic-os/file-pipeline/pkg/kafka/producer"
)

// EventProducer writes one message per terminal thumbnail transition, keyed
// by file id so events for the same file land on one partition in order.
type EventProducer struct {
	producer *producer.Producer
	topic    string
}

func NewEventProducer(p *producer.Producer, topic string) *EventProducer {
	return &EventProducer{
		producer: p,
		topic:    topic,
	}
}

func (p *EventProducer) SendThumbnailEvent(ctx context.Context, event entity.ThumbnailEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("EventProducer - SendThumbnailEvent - json.Marshal: %w", err)
	}

	err = p.producer.Writer.WriteMessages(ctx, segmentio.Message{
		Topic: p.topic,
		Key:   []byte(event.FileID.String()),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("EventProducer - SendThumbnailEvent - p.producer.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (p *EventProducer) Close() error {
	return p.producer.Close()
}

// NopSender is used when event publishing is disabled.
type NopSender struct{}

func (NopSender) SendThumbnailEvent(context.Context, entity.ThumbnailEvent) error { return nil }

func (NopSender) Close() error { return nil }
