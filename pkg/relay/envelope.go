package relay

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/eventsource/pkg/sse"
)

const (
	// SchemaVersionV1 is the first version of the envelope payload schema.
	SchemaVersionV1 = 1

	// EventTypeStreamEvent is emitted for every application event received
	// on the upstream SSE connection.
	EventTypeStreamEvent = "eventsource.stream.event"
)

// EventEnvelope is a transport-neutral payload wrapping one received SSE
// event for downstream consumers.
type EventEnvelope struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Origin        string      `json:"origin"`
	Stream        StreamEvent `json:"stream"`
}

// StreamEvent captures the wire-level fields of the received SSE event.
type StreamEvent struct {
	Type        string `json:"type"`
	Data        string `json:"data"`
	LastEventID string `json:"last_event_id,omitempty"`
}

// NewEnvelope wraps a received SSE event into a v1 envelope with a fresh
// event ID and emission timestamp.
func NewEnvelope(ev sse.Event) *EventEnvelope {
	return &EventEnvelope{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeStreamEvent,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Origin:        ev.Origin,
		Stream: StreamEvent{
			Type:        ev.Type,
			Data:        ev.Data,
			LastEventID: ev.LastEventID,
		},
	}
}
