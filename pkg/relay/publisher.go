// Package relay republishes events received over an SSE connection to a
// downstream message-stream backend, turning a long-lived HTTP event
// stream into pipeline input.
package relay

import "context"

// Publisher publishes stream events to a relay backend.
type Publisher interface {
	Publish(ctx context.Context, env *EventEnvelope) error
	Close() error
}
