// Package message publishes radar events to Kafka for external consumers.
package message

import (
	"context"
	"encoding/json"
	"fmt"

	kafka "github.com/segmentio/kafka-go"
)

// Publisher emits radar events. Implementations must be safe for concurrent
// use by both loops.
type Publisher interface {
	PublishAlertTriggered(ctx context.Context, event AlertTriggeredEvent) error
	PublishTokenBonded(ctx context.Context, event TokenBondedEvent) error
	Close() error
}

// NopPublisher discards events; used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishAlertTriggered(context.Context, AlertTriggeredEvent) error { return nil }
func (NopPublisher) PublishTokenBonded(context.Context, TokenBondedEvent) error       { return nil }
func (NopPublisher) Close() error                                                     { return nil }

// KafkaPublisher implements Publisher over a shared kafka-go writer.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher that writes to the given brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{writer: w}
}

var _ Publisher = (*KafkaPublisher)(nil)

// Close shuts down the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// PublishAlertTriggered publishes to the radar.alerts.triggered topic, keyed
// by token so per-token ordering survives partitioning.
func (p *KafkaPublisher) PublishAlertTriggered(ctx context.Context, event AlertTriggeredEvent) error {
	return p.publish(ctx, TopicAlertTriggered, event.TokenID, event)
}

// PublishTokenBonded publishes to the radar.tokens.bonded topic.
func (p *KafkaPublisher) PublishTokenBonded(ctx context.Context, event TokenBondedEvent) error {
	return p.publish(ctx, TopicTokenBonded, event.Mint, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal kafka event for topic %s: %w", topic, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
}
