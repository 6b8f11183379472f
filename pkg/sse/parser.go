package sse

import (
	"strconv"
	"strings"
	"time"
)

// DefaultRetryInterval is the reconnect interval tracked before any valid
// "retry:" field arrives.
const DefaultRetryInterval = 1000 * time.Millisecond

// Dispatcher receives each event flushed by the Parser.
type Dispatcher func(ev Event)

// Parser consumes one logical line at a time and accumulates pending event
// state: the event type, multi-line data, the staged event ID and the
// reconnect interval. A blank line flushes the pending event to the
// Dispatcher.
//
// Parsing never fails. Malformed retry values, unknown fields and comment
// lines are silently absorbed; the only externally visible effect of bad
// input is no change.
type Parser struct {
	origin   string
	dispatch Dispatcher

	// data and eventType are the pending-event buffers, flushed and
	// cleared together on a blank line.
	data      strings.Builder
	eventType string

	// lastEventID is the committed Last-Event-ID; lastEventIDBuffer holds
	// the value staged by the most recent "id:" field of the current,
	// not-yet-flushed event. The buffer is committed on every blank line
	// whether or not an event is dispatched.
	lastEventID       string
	lastEventIDBuffer string

	retryInterval time.Duration
}

// NewParser returns a Parser that stamps dispatched events with origin.
func NewParser(origin string, dispatch Dispatcher) *Parser {
	return &Parser{
		origin:        origin,
		dispatch:      dispatch,
		retryInterval: DefaultRetryInterval,
	}
}

// ProcessLine consumes one complete logical line, blank lines included.
// All effects are the pending-event state and zero or one dispatched event
// per blank line.
func (p *Parser) ProcessLine(line string) {
	if line == "" {
		p.flush()
		return
	}

	f := classifyLine(line)
	switch f.kind {
	case fieldComment:
		// Comment line, no state change.
	case fieldEvent:
		p.eventType = f.value
	case fieldData:
		p.data.WriteString(f.value)
		p.data.WriteByte('\n')
	case fieldID:
		p.lastEventIDBuffer = f.value
	case fieldRetry:
		if ms, err := strconv.Atoi(f.value); err == nil {
			p.retryInterval = time.Duration(ms) * time.Millisecond
		}
	case fieldUnknown:
		// Unrecognized fields are ignored.
	}
}

// flush commits the staged event ID and dispatches the pending event, if
// any. An event with no "data" lines (a bare blank line, or an event
// carrying only a comment or id) never fires.
func (p *Parser) flush() {
	p.lastEventID = p.lastEventIDBuffer

	if p.data.Len() == 0 {
		p.eventType = ""
		return
	}

	eventType := p.eventType
	if eventType == "" {
		eventType = DefaultEventType
	}

	// Each "data:" line appended exactly one trailing newline; the flush
	// removes exactly one.
	data := strings.TrimSuffix(p.data.String(), "\n")

	p.data.Reset()
	p.eventType = ""

	p.dispatch(Event{
		Type:        eventType,
		Data:        data,
		Origin:      p.origin,
		LastEventID: p.lastEventID,
	})
}

// LastEventID returns the committed Last-Event-ID.
func (p *Parser) LastEventID() string {
	return p.lastEventID
}

// SetLastEventID seeds the session's Last-Event-ID, both committed and
// staged, so that events preceding any "id:" field carry it and the next
// blank-line commit does not wipe it. Used when a caller supplies a
// Last-Event-ID header at connection time.
func (p *Parser) SetLastEventID(id string) {
	p.lastEventID = id
	p.lastEventIDBuffer = id
}

// RetryInterval returns the tracked reconnect interval. The protocol
// defines the value; this package only tracks it and never initiates
// retries itself.
func (p *Parser) RetryInterval() time.Duration {
	return p.retryInterval
}
