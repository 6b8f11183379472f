package eventsource

import "github.com/papercomputeco/eventsource/pkg/sse"

// Handler consumes a dispatched event. Application events, "open" and
// "error" all flow through the same dispatch path; error details ride in
// the event's Data field.
type Handler func(ev sse.Event)

// ListenerHandle identifies a registered listener so it can be removed.
type ListenerHandle struct {
	eventType string
	id        uint64
}

type listenerEntry struct {
	id      uint64
	handler Handler
}

// registry maps event-type strings to ordered listener lists, plus at most
// one designated primary handler per type. Invocation order is fixed:
// registry listeners first, in registration order, then the primary
// handler. The registry is not safe for concurrent use on its own; the
// owning EventSource serializes access.
type registry struct {
	nextID    uint64
	listeners map[string][]listenerEntry
	primary   map[string]Handler
}

func newRegistry() *registry {
	return &registry{
		listeners: make(map[string][]listenerEntry),
		primary:   make(map[string]Handler),
	}
}

// add appends a listener for eventType and returns its removal handle.
func (r *registry) add(eventType string, h Handler) ListenerHandle {
	r.nextID++
	r.listeners[eventType] = append(r.listeners[eventType], listenerEntry{
		id:      r.nextID,
		handler: h,
	})
	return ListenerHandle{eventType: eventType, id: r.nextID}
}

// remove drops the listener identified by handle. Removing an unknown
// handle is a no-op.
func (r *registry) remove(handle ListenerHandle) {
	entries := r.listeners[handle.eventType]
	for i, entry := range entries {
		if entry.id == handle.id {
			r.listeners[handle.eventType] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// setPrimary installs the designated primary handler for eventType,
// replacing any previous one. A nil handler clears the slot.
func (r *registry) setPrimary(eventType string, h Handler) {
	if h == nil {
		delete(r.primary, eventType)
		return
	}
	r.primary[eventType] = h
}

// handlersFor snapshots the invocation list for eventType: registry
// listeners in registration order, then the primary handler. The snapshot
// lets the caller invoke handlers without holding the connection lock.
func (r *registry) handlersFor(eventType string) []Handler {
	entries := r.listeners[eventType]
	handlers := make([]Handler, 0, len(entries)+1)
	for _, entry := range entries {
		handlers = append(handlers, entry.handler)
	}
	if h, ok := r.primary[eventType]; ok {
		handlers = append(handlers, h)
	}
	return handlers
}
