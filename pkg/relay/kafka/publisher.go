// Package kafka provides a relay publisher backed by a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/eventsource/pkg/relay"
)

// Config configures a Kafka relay publisher.
type Config struct {
	// Brokers are the bootstrap broker addresses.
	Brokers []string

	// Topic is the destination topic for relayed events.
	Topic string

	// Logger is the provided zap logger. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Publisher relays stream events to a Kafka topic. Messages are keyed by
// origin URL so events from one stream land on one partition, preserving
// wire order for downstream consumers.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka relay publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}

	return &Publisher{
		writer: writer,
		logger: cfg.Logger,
	}, nil
}

// Publish writes the envelope to the configured topic as JSON.
func (p *Publisher) Publish(ctx context.Context, env *relay.EventEnvelope) error {
	if env == nil {
		return relay.ErrNilEvent
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.Origin),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("writing to topic %s: %w", p.writer.Topic, err)
	}

	p.logger.Debug("event relayed",
		zap.String("event_id", env.EventID),
		zap.String("stream_type", env.Stream.Type),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
