package sse

import "strings"

// bom is the UTF-8 byte-order mark some servers prepend to a stream.
// It is only ever valid as the first three bytes of the first chunk.
const bom = "\ufeff"

// LineSink receives each complete logical line, terminator stripped.
// Blank lines are delivered too, as they are the event-flush delimiter.
type LineSink func(line string)

// LineDecoder converts an unbounded sequence of incrementally-arriving text
// chunks into a sequence of complete logical lines. CR, LF and CRLF all end
// a line, including a CRLF pair split across two chunks.
//
// A trailing partial line is buffered until a later chunk completes it.
// There is no line-length cap; memory grows with pathological input, which
// is acceptable because the transport bounds chunk sizes in practice.
type LineDecoder struct {
	sink LineSink
	line strings.Builder

	// firstChunk gates the one-shot BOM strip.
	firstChunk bool

	// discardLineFeed is set after a CR completes a line so that a
	// following LF, even one arriving at the start of the next chunk,
	// is absorbed, treating CRLF as a single break.
	discardLineFeed bool
}

// NewLineDecoder returns a LineDecoder that hands complete lines to sink.
func NewLineDecoder(sink LineSink) *LineDecoder {
	return &LineDecoder{
		sink:       sink,
		firstChunk: true,
	}
}

// Feed consumes an arbitrary, possibly empty, chunk of text and emits zero
// or more complete logical lines to the sink, in order, before returning.
func (d *LineDecoder) Feed(chunk string) {
	if d.firstChunk {
		d.firstChunk = false
		chunk = strings.TrimPrefix(chunk, bom)
	}

	// Byte-wise scan: CR and LF cannot occur inside a multi-byte UTF-8
	// sequence, so buffering raw bytes keeps runes split across chunk
	// boundaries intact.
	for i := 0; i < len(chunk); i++ {
		c := chunk[i]

		if d.discardLineFeed {
			d.discardLineFeed = false
			if c == '\n' {
				continue
			}
		}

		switch c {
		case '\r':
			d.emit()
			d.discardLineFeed = true
		case '\n':
			d.emit()
		default:
			d.line.WriteByte(c)
		}
	}
}

// emit hands the buffered line to the sink and clears the buffer.
func (d *LineDecoder) emit() {
	line := d.line.String()
	d.line.Reset()
	d.sink(line)
}
