package eventsource

import "go.uber.org/zap"

// Option configures an EventSource created with New.
type Option func(*EventSource)

// WithHeaders merges the given headers over the two built-in defaults
// (Cache-Control: no-store, Accept: text/event-stream). A Last-Event-ID
// entry is extracted into session state and removed from the outgoing
// header set.
func WithHeaders(headers map[string]string) Option {
	return func(es *EventSource) {
		for k, v := range headers {
			es.callerHeaders[k] = v
		}
	}
}

// WithCredentials asks the transport to attach ambient credentials to the
// request. Defaults to false.
func WithCredentials(withCredentials bool) Option {
	return func(es *EventSource) {
		es.withCredentials = withCredentials
	}
}

// WithLastEventID seeds the session's Last-Event-ID ahead of the first
// event, equivalent to supplying a Last-Event-ID header.
func WithLastEventID(id string) Option {
	return func(es *EventSource) {
		es.parser.SetLastEventID(id)
	}
}

// WithTransport overrides the transport. Defaults to NewHTTPTransport().
func WithTransport(t Transport) Option {
	return func(es *EventSource) {
		es.transport = t
	}
}

// WithLogger sets the zap logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(es *EventSource) {
		es.logger = logger
	}
}
