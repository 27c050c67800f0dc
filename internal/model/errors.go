package model

import (
	"errors"
	"fmt"
	"strings"
)

// Analysis failure kinds. Match with errors.Is against a *TraceError.
var (
	ErrNoMainThread     = errors.New("no main thread identified")
	ErrUnmatchedEnd     = errors.New("unmatched end event")
	ErrAmbiguousNesting = errors.New("ambiguous task nesting")
	ErrMalformedEvent   = errors.New("malformed event")
)

// EventRef points at an offending event of the input trace.
type EventRef struct {
	Seq   int
	Name  string
	Phase Phase
	TS    float64
}

// RefOf returns a reference to e.
func RefOf(e *Event) EventRef {
	return EventRef{Seq: e.Seq, Name: e.Name, Phase: e.Phase, TS: e.TS}
}

// TraceError is a fatal failure of a single trace's reconstruction.
type TraceError struct {
	Kind   error
	Events []EventRef
	Msg    string
}

// NewTraceError builds a TraceError of the given kind.
func NewTraceError(kind error, msg string, events ...EventRef) *TraceError {
	return &TraceError{Kind: kind, Msg: msg, Events: events}
}

func (e *TraceError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	for _, ref := range e.Events {
		fmt.Fprintf(&sb, " [#%d %s %q ts=%.0f]", ref.Seq, ref.Phase, ref.Name, ref.TS)
	}
	return sb.String()
}

func (e *TraceError) Unwrap() error { return e.Kind }
