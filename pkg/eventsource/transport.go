package eventsource

import "net/http"

// RequestID is the opaque, transport-assigned identifier for one in-flight
// streaming request. It is the sole correlation key used to discard stale
// callbacks, e.g. callbacks arriving after Close or after a superseding
// connection.
type RequestID string

// Request describes the single outbound streaming request issued by an
// EventSource: method GET, empty body, incremental ("streamed") delivery,
// no timeout.
type Request struct {
	// Method is the HTTP method. EventSource always issues GET.
	Method string

	// URL is the stream endpoint.
	URL string

	// Headers are the outgoing request headers, already merged over the
	// EventSource defaults.
	Headers map[string]string

	// WithCredentials asks the transport to attach ambient credentials
	// (cookies) to the request.
	WithCredentials bool
}

// Callbacks are the four lifecycle hooks a transport drives for one request.
// A transport invokes them sequentially; chunk callbacks arrive in wire
// order. Every callback carries the RequestID so the connection can discard
// callbacks that no longer correlate.
type Callbacks struct {
	// OnCreated acknowledges request creation with the assigned identifier.
	OnCreated func(id RequestID)

	// OnResponse delivers the response status line and headers, before any
	// body chunk.
	OnResponse func(id RequestID, status int, header http.Header)

	// OnChunk delivers one incremental body chunk.
	OnChunk func(id RequestID, chunk string)

	// OnDone fires once the request completes: end of stream, transport
	// failure, or abort. err is nil for a clean end of stream.
	OnDone func(id RequestID, err error)
}

// Transport issues streaming requests and drives their lifecycle callbacks.
// The connection layer never opens sockets or parses HTTP itself; it builds
// a Request, hands over Callbacks and reacts.
type Transport interface {
	// Do issues the request. The returned RequestID matches the one passed
	// to every callback. Do only fails for requests that cannot be
	// constructed at all; transport-level failures after that surface via
	// OnDone.
	Do(req Request, cb Callbacks) (RequestID, error)

	// Abort cancels an in-flight request. Aborting an unknown or already
	// finished request is a no-op. Cancellation is cooperative: the caller
	// does not wait for the transport to confirm.
	Abort(id RequestID)
}
