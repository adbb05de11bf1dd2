package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes listing.submitted events to a topic so other systems
// (reporting, CRM write-backs) can react without coupling to this service.
// Publishing is best-effort: a broker outage must not fail the webhook.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // keeps per-item ordering by key
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (p *KafkaPublisher) PublishListingSubmitted(ctx context.Context, evt ListingSubmitted) {
	value, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[WARN] event marshal failed: %v", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(evt.EntityTypeID + "_" + evt.ItemID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("[WARN] event publish failed for item %s: %v", evt.ItemID, err)
	}
}

// SubscribeListingSubmitted is not supported on the Kafka publisher; local
// consumers should use the in-memory publisher.
func (p *KafkaPublisher) SubscribeListingSubmitted() <-chan ListingSubmitted { return nil }

func (p *KafkaPublisher) Close() error { return p.writer.Close() }
