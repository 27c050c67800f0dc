// Package testdata provides trace fixtures for tests: an embedded sample
// trace and a builder for synthetic main-thread traces.
package testdata

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/timber/internal/connector"
	"github.com/crimson-sun/timber/internal/model"
)

//go:embed sample_trace.json
var sampleTrace []byte

// Fixed process and thread ids of synthetic traces.
const (
	BrowserPID  = 1
	RendererPID = 2
	MainTID     = 3
	OtherTID    = 4
)

// MainFrame is the id and URL of the page frame of synthetic traces.
const (
	MainFrame    = "F1"
	MainFrameURL = "https://example.com/"
)

// SampleTrace returns the embedded sample trace file, an object with a
// traceEvents array.
func SampleTrace() []byte {
	return sampleTrace
}

// LoadSample decodes the embedded sample trace.
func LoadSample() ([]model.RawEvent, error) {
	events, err := connector.DecodeBytes(sampleTrace)
	if err != nil {
		return nil, fmt.Errorf("parse sample_trace.json: %w", err)
	}
	return events, nil
}

// Trace builds a synthetic trace. Times are given in milliseconds and
// stored in microseconds. The preamble marks RendererPID/MainTID as the
// page's main thread.
type Trace struct {
	events []model.RawEvent
}

// NewTrace starts a trace with the main-thread preamble.
func NewTrace() *Trace {
	t := &Trace{}
	t.Raw(model.RawEvent{
		Phase: model.PhaseInstant, Name: "TracingStartedInBrowser", Cat: "disabled-by-default-devtools.timeline",
		PID: BrowserPID, TID: 1,
		Args: args(`{"data":{"frames":[{"frame":%q,"url":%q,"processId":%d}]}}`, MainFrame, MainFrameURL, RendererPID),
	})
	t.Raw(model.RawEvent{
		Phase: model.PhaseMetadata, Name: "thread_name", Cat: "__metadata",
		PID: RendererPID, TID: MainTID, Args: args(`{"name":"CrRendererMain"}`),
	})
	return t
}

// Begin appends a begin event on the main thread.
func (t *Trace) Begin(name string, ms float64, data string) *Trace {
	return t.Raw(t.main(model.PhaseBegin, name, ms, data))
}

// End appends an end event on the main thread.
func (t *Trace) End(name string, ms float64) *Trace {
	return t.Raw(t.main(model.PhaseEnd, name, ms, ""))
}

// Complete appends a complete event on the main thread.
func (t *Trace) Complete(name string, ms, durMs float64, data string) *Trace {
	e := t.main(model.PhaseComplete, name, ms, data)
	d := durMs * 1000
	e.Dur = &d
	return t.Raw(e)
}

// Instant appends an instant event on the main thread.
func (t *Trace) Instant(name string, ms float64, data string) *Trace {
	return t.Raw(t.main(model.PhaseInstant, name, ms, data))
}

// Raw appends e unchanged.
func (t *Trace) Raw(e model.RawEvent) *Trace {
	t.events = append(t.events, e)
	return t
}

// Events returns the built trace.
func (t *Trace) Events() []model.RawEvent {
	return t.events
}

// JSON encodes the trace as a bare event array.
func (t *Trace) JSON() []byte {
	b, err := json.Marshal(t.events)
	if err != nil {
		panic(err)
	}
	return b
}

func (t *Trace) main(ph model.Phase, name string, ms float64, data string) model.RawEvent {
	e := model.RawEvent{
		Phase: ph, Name: name, Cat: "devtools.timeline",
		PID: RendererPID, TID: MainTID, TS: ms * 1000,
	}
	if data != "" {
		e.Args = args(`{"data":%s}`, data)
	}
	return e
}

func args(format string, a ...any) []byte {
	return []byte(fmt.Sprintf(format, a...))
}
