package nop

import (
	"context"

	"github.com/papercomputeco/eventsource/pkg/relay"
)

// Publisher is a no-op relay publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op relay publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish validates input and otherwise does nothing.
func (p *Publisher) Publish(_ context.Context, env *relay.EventEnvelope) error {
	if env == nil {
		return relay.ErrNilEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
