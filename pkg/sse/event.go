// Package sse implements the client side of the SSE (Server-Sent Events)
// wire protocol: an incremental line decoder that turns arbitrarily-chunked
// text into complete logical lines, and a field parser that aggregates those
// lines into dispatched events.
//
// The decode path is push-based: chunks arrive from a transport in wire
// order and each Feed call synchronously emits whatever became complete.
// The package works with any delivery mechanism that hands over text
// incrementally, without owning an io.Reader.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DefaultEventType is the type used for events whose stream carried no
// "event:" field, per the SSE spec.
const DefaultEventType = "message"

// Event represents a single dispatched SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// Defaults to "message" when the stream carried no "event:" field.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// Origin is the URL of the connection the event arrived on.
	Origin string

	// LastEventID is the last event ID committed on the stream, from the
	// most recent "id:" field. It persists across events until overwritten.
	LastEventID string
}
