package model

import "encoding/json"

// Phase is the trace-event phase code.
type Phase string

const (
	PhaseBegin    Phase = "B"
	PhaseEnd      Phase = "E"
	PhaseComplete Phase = "X"
	PhaseInstant  Phase = "I"
	PhaseMetadata Phase = "M"
)

// IsInstant reports whether the phase is one of the instant-event codes.
// Chrome emits both "I" and the legacy "i"; "R" is a mark.
func (p Phase) IsInstant() bool {
	return p == PhaseInstant || p == "i" || p == "R"
}

// RawEvent is a single record of a trace as emitted by the browser.
// It is owned by the trace and never mutated.
type RawEvent struct {
	Phase Phase           `json:"ph"`
	Name  string          `json:"name"`
	Cat   string          `json:"cat"`
	PID   int             `json:"pid"`
	TID   int             `json:"tid"`
	TS    float64         `json:"ts"`            // microseconds
	Dur   *float64        `json:"dur,omitempty"` // microseconds, complete events only
	Args  json.RawMessage `json:"args,omitempty"`
}

// End returns the event's end timestamp, ts+dur for complete events and ts otherwise.
func (e RawEvent) End() float64 {
	if e.Dur != nil {
		return e.TS + *e.Dur
	}
	return e.TS
}

// Event is a RawEvent retained by normalization, with its payload decoded.
type Event struct {
	RawEvent
	Seq     int     // index in the original trace
	Payload Payload // decoded args
}

// RawTrace is a trace as handed over by a connector.
type RawTrace struct {
	Source string
	Events []RawEvent
	// TimeOrigin overrides the time origin in microseconds when set.
	TimeOrigin *float64
}
