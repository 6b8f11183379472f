package sse

import "strings"

// fieldKind is the closed set of line classifications. Recognized field
// names map to their own kind; everything else is fieldUnknown and is
// silently ignored by the parser, per the SSE spec.
type fieldKind int

const (
	fieldComment fieldKind = iota
	fieldEvent
	fieldData
	fieldID
	fieldRetry
	fieldUnknown
)

// field is a classified non-blank line: its kind plus the value after the
// first colon, with at most one leading space stripped.
type field struct {
	kind  fieldKind
	value string
}

// classifyLine classifies a single non-blank logical line.
//
// Per the SSE spec, a line has the form "field:value" where a single space
// after the colon is optional and stripped if present (only one, so
// "data:  x" yields " x"). A line starting with ':' is a comment, and a
// line with no colon is a field name with an empty value.
func classifyLine(line string) field {
	if strings.HasPrefix(line, ":") {
		return field{kind: fieldComment}
	}

	name := line
	value := ""
	if before, after, ok := strings.Cut(line, ":"); ok {
		name = before
		value = strings.TrimPrefix(after, " ")
	}

	switch name {
	case "event":
		return field{kind: fieldEvent, value: value}
	case "data":
		return field{kind: fieldData, value: value}
	case "id":
		return field{kind: fieldID, value: value}
	case "retry":
		return field{kind: fieldRetry, value: value}
	default:
		return field{kind: fieldUnknown}
	}
}
