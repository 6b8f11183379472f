// Package eventsource provides a client for SSE (Server-Sent Events)
// streams: a small connection state machine that issues a single streaming
// GET request, classifies the response, and feeds valid incremental bodies
// through the sse decode pipeline out to registered listeners.
//
// The package never opens sockets or parses HTTP itself; a Transport
// supplies the connection lifecycle callbacks. The default transport is
// built on net/http, see NewHTTPTransport.
//
// Automatic reconnection is deliberately out of scope. The protocol's
// reconnect interval is tracked and exposed via RetryInterval, but the
// connection never initiates retries itself.
package eventsource

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/eventsource/pkg/sse"
)

// ReadyState is the connection lifecycle state. It advances monotonically
// and never regresses once Closed.
type ReadyState int

const (
	// Connecting is the initial state, before the response is validated.
	Connecting ReadyState = iota

	// Open means the response was validated and events are flowing.
	Open

	// Closed is terminal: reached from Connecting on any validation
	// failure, or from Open via Close.
	Closed
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("readystate(%d)", int(s))
	}
}

const (
	// TypeOpen is the event type dispatched when the connection opens.
	TypeOpen = "open"

	// TypeError is the event type for surfaced connection errors. The
	// human-readable message rides in the event's Data field.
	TypeError = "error"

	contentTypeEventStream = "text/event-stream"
	headerLastEventID      = "Last-Event-ID"
)

// EventSource is a single-use SSE client connection. Construct with New,
// register listeners, then Connect. All protocol and transport failures are
// surfaced as "error" events, never as returned errors; see the package
// docs for the classification contract.
//
// The transport delivers callbacks sequentially from its own goroutine, so
// the connection guards its state with a mutex. Handlers are always invoked
// without that lock held and may safely call back into the EventSource.
type EventSource struct {
	url             string
	withCredentials bool
	callerHeaders   map[string]string
	transport       Transport
	logger          *zap.Logger

	mu         sync.Mutex
	readyState ReadyState
	requestID  RequestID
	started    bool
	subscribed bool
	decoder    *sse.LineDecoder
	parser     *sse.Parser
	registry   *registry

	// pending collects events flushed by the parser during one Feed call,
	// so they can be dispatched after the lock is released.
	pending []sse.Event

	done chan struct{}
}

// New creates an EventSource for url. The URL is immutable after
// construction; an empty URL is a fatal construction error.
func New(url string, opts ...Option) (*EventSource, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	es := &EventSource{
		url:           url,
		callerHeaders: make(map[string]string),
		logger:        zap.NewNop(),
		readyState:    Connecting,
		registry:      newRegistry(),
		done:          make(chan struct{}),
	}
	es.parser = sse.NewParser(url, func(ev sse.Event) {
		es.pending = append(es.pending, ev)
	})
	es.decoder = sse.NewLineDecoder(es.parser.ProcessLine)

	for _, opt := range opts {
		opt(es)
	}

	if es.transport == nil {
		es.transport = NewHTTPTransport()
	}

	return es, nil
}

// Connect issues the single outbound streaming GET request. It returns an
// error only when no request could be issued at all; everything after that
// is reported through "error" events.
func (es *EventSource) Connect() error {
	es.mu.Lock()
	if es.readyState == Closed {
		es.mu.Unlock()
		return ErrClosed
	}
	if es.started {
		es.mu.Unlock()
		return ErrAlreadyConnected
	}
	es.started = true
	es.subscribed = true
	req := Request{
		Method:          http.MethodGet,
		URL:             es.url,
		Headers:         es.buildHeaders(),
		WithCredentials: es.withCredentials,
	}
	es.mu.Unlock()

	es.logger.Debug("issuing stream request",
		zap.String("url", es.url),
		zap.Bool("with_credentials", es.withCredentials),
	)

	if _, err := es.transport.Do(req, Callbacks{
		OnCreated:  es.onCreated,
		OnResponse: es.onResponse,
		OnChunk:    es.onChunk,
		OnDone:     es.onDone,
	}); err != nil {
		es.Close()
		return fmt.Errorf("issuing request: %w", err)
	}

	return nil
}

// buildHeaders assembles the outgoing header set: the two built-in
// defaults, then the session Last-Event-ID if one was seeded, then the
// caller-supplied headers merged over both. A caller-supplied Last-Event-ID
// is staged into session state instead of being sent.
// Called with es.mu held.
func (es *EventSource) buildHeaders() map[string]string {
	headers := map[string]string{
		"Cache-Control": "no-store",
		"Accept":        contentTypeEventStream,
	}

	if id := es.parser.LastEventID(); id != "" {
		headers[headerLastEventID] = id
	}

	for k, v := range es.callerHeaders {
		if strings.EqualFold(k, headerLastEventID) {
			es.parser.SetLastEventID(v)
			delete(headers, headerLastEventID)
			continue
		}
		headers[k] = v
	}

	return headers
}

// URL returns the connection's URL.
func (es *EventSource) URL() string {
	return es.url
}

// ReadyState returns the current connection state.
func (es *EventSource) ReadyState() ReadyState {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.readyState
}

// LastEventID returns the committed Last-Event-ID of the session.
func (es *EventSource) LastEventID() string {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.parser.LastEventID()
}

// RetryInterval returns the reconnect interval tracked from "retry:"
// fields. The connection never initiates retries; callers layering their
// own reconnection policy should honor this value.
func (es *EventSource) RetryInterval() time.Duration {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.parser.RetryInterval()
}

// Done returns a channel closed when the connection reaches Closed.
func (es *EventSource) Done() <-chan struct{} {
	return es.done
}

// AddEventListener registers a listener for events of the given type and
// returns a handle for removal. Listeners for one type run in registration
// order, before the type's primary handler.
func (es *EventSource) AddEventListener(eventType string, h Handler) ListenerHandle {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.registry.add(eventType, h)
}

// RemoveEventListener removes a previously registered listener. Removing
// an unknown handle is a no-op.
func (es *EventSource) RemoveEventListener(handle ListenerHandle) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registry.remove(handle)
}

// OnMessage installs the primary handler for default-typed ("message")
// events, replacing any previous one. Events with a named type are only
// delivered to listeners for that type, never here.
func (es *EventSource) OnMessage(h Handler) {
	es.setPrimary(sse.DefaultEventType, h)
}

// OnOpen installs the primary handler for the "open" event.
func (es *EventSource) OnOpen(h Handler) {
	es.setPrimary(TypeOpen, h)
}

// OnError installs the primary handler for "error" events.
func (es *EventSource) OnError(h Handler) {
	es.setPrimary(TypeError, h)
}

func (es *EventSource) setPrimary(eventType string, h Handler) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registry.setPrimary(eventType, h)
}

// Close tears the connection down: aborts the in-flight request if one is
// known, drops the transport subscriptions, and sets the state to Closed.
// Close is idempotent and safe to call from handlers.
func (es *EventSource) Close() {
	es.mu.Lock()
	id := es.requestID
	wasClosed := es.readyState == Closed
	es.subscribed = false
	es.readyState = Closed
	es.mu.Unlock()

	if id != "" {
		es.transport.Abort(id)
	}

	if !wasClosed {
		es.logger.Debug("connection closed", zap.String("url", es.url))
		close(es.done)
	}
}

// onCreated records the transport-assigned request identifier. Subsequent
// callbacks are ignored unless their identifier matches.
func (es *EventSource) onCreated(id RequestID) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if !es.subscribed {
		return
	}
	es.requestID = id
	es.logger.Debug("request created", zap.String("request_id", string(id)))
}

// correlated reports whether a callback for id should be processed.
// Called with es.mu held.
func (es *EventSource) correlated(id RequestID) bool {
	return es.subscribed && es.requestID != "" && id == es.requestID
}

// onResponse classifies the response by status code and content type.
//
// The classification is deliberately asymmetric: transient upstream
// failures (5xx gateway-class codes) and unsupported redirects surface an
// error but leave the connection untouched, while any other non-200 status
// or a wrong content type is terminal.
func (es *EventSource) onResponse(id RequestID, status int, header http.Header) {
	es.mu.Lock()
	if !es.correlated(id) {
		es.mu.Unlock()
		return
	}
	es.mu.Unlock()

	switch {
	case status == http.StatusInternalServerError ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout:
		// Non-terminal: the connection is treated as possibly still usable.
		es.emitError(fmt.Sprintf("server returned status %d", status))

	case status == http.StatusMovedPermanently || status == http.StatusTemporaryRedirect:
		// Non-terminal.
		es.emitError(fmt.Sprintf("redirect not supported (status %d)", status))

	case status != http.StatusOK:
		es.emitError(fmt.Sprintf("unexpected status %d", status))
		es.Close()

	case header.Get("Content-Type") != contentTypeEventStream:
		es.emitError(fmt.Sprintf("unexpected content type %q", header.Get("Content-Type")))
		es.Close()

	default:
		es.mu.Lock()
		if es.readyState == Connecting {
			es.readyState = Open
		}
		es.mu.Unlock()

		es.logger.Debug("stream open", zap.String("url", es.url))
		es.dispatch(sse.Event{Type: TypeOpen, Origin: es.url})
	}
}

// onChunk forwards an incremental body chunk to the line decoder and
// dispatches whatever events it flushed. No gating on ReadyState is
// performed; chunks are processed even before the response is validated.
func (es *EventSource) onChunk(id RequestID, chunk string) {
	es.mu.Lock()
	if !es.correlated(id) {
		es.mu.Unlock()
		return
	}
	es.pending = es.pending[:0]
	es.decoder.Feed(chunk)
	flushed := make([]sse.Event, len(es.pending))
	copy(flushed, es.pending)
	es.mu.Unlock()

	for _, ev := range flushed {
		es.dispatch(ev)
	}
}

// onDone handles request completion. The stream ending, cleanly or not,
// is terminal for a single-use connection: an error event is surfaced and
// the connection closes. Callers wanting reconnection can layer it on top
// using RetryInterval and LastEventID.
func (es *EventSource) onDone(id RequestID, err error) {
	es.mu.Lock()
	if !es.correlated(id) {
		es.mu.Unlock()
		return
	}
	es.mu.Unlock()

	if err != nil {
		es.emitError(fmt.Sprintf("stream ended: %v", err))
	} else {
		es.emitError("stream ended")
	}
	es.Close()
}

// dispatch delivers ev to the listeners registered for its type. The
// handler list is snapshotted under the lock and invoked without it.
func (es *EventSource) dispatch(ev sse.Event) {
	es.mu.Lock()
	handlers := es.registry.handlersFor(ev.Type)
	es.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// emitError surfaces a connection failure as an "error" event.
func (es *EventSource) emitError(message string) {
	es.logger.Error("stream error",
		zap.String("url", es.url),
		zap.String("message", message),
	)

	es.dispatch(sse.Event{Type: TypeError, Data: message, Origin: es.url})
}
