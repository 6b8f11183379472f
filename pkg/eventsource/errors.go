package eventsource

import "errors"

// ErrEmptyURL indicates an EventSource was constructed without a URL.
var ErrEmptyURL = errors.New("empty url")

// ErrAlreadyConnected indicates Connect was called on a connection that
// already issued its request. An EventSource issues exactly one request.
var ErrAlreadyConnected = errors.New("already connected")

// ErrClosed indicates Connect was called on a closed connection.
var ErrClosed = errors.New("connection closed")
