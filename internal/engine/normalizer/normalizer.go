// Package normalizer turns a raw trace into the main-thread event stream the
// task builder consumes.
package normalizer

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/crimson-sun/timber/internal/model"
)

// PushOutTraceEnd names the instant event that extends the trace end past
// the last recorded event.
const PushOutTraceEnd = "MarkerToPushOutTraceEnd"

// Options tune normalization.
type Options struct {
	// TimeOrigin overrides the time origin, in microseconds. When nil the
	// earliest retained event is used.
	TimeOrigin *float64
	// Categories restricts retained events to those carrying at least one
	// of the listed categories. Empty keeps everything.
	Categories []string
}

// Normalizer selects and orders the main-thread events of a trace.
type Normalizer struct {
	origin     *float64
	categories map[string]struct{}
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	n := &Normalizer{origin: opts.TimeOrigin}
	if len(opts.Categories) > 0 {
		n.categories = make(map[string]struct{}, len(opts.Categories))
		for _, c := range opts.Categories {
			n.categories[strings.TrimSpace(c)] = struct{}{}
		}
	}
	return n
}

// Normalize builds the Stream for a trace. The input slice is not modified.
func (n *Normalizer) Normalize(events []model.RawEvent) (*model.Stream, error) {
	thread, err := findMainThread(events)
	if err != nil {
		return nil, err
	}

	retained := make([]model.Event, 0, len(events)/2)
	pushOut := math.Inf(-1)
	observedEnd := math.Inf(-1)
	for i := range events {
		e := &events[i]
		if e.Name == PushOutTraceEnd && e.Phase.IsInstant() {
			pushOut = max(pushOut, e.TS)
		}
		// The trace end covers every thread, not only the main one.
		if end, ok := observedEndOf(e); ok {
			observedEnd = max(observedEnd, end)
		}
		if e.PID != thread.PID || e.TID != thread.TID || !keepPhase(e.Phase) || !n.keepCategory(e.Cat) {
			continue
		}
		if err := validate(e, i); err != nil {
			return nil, err
		}
		retained = append(retained, model.Event{
			RawEvent: *e,
			Seq:      i,
			Payload:  decodePayload(e.Name, e.Args),
		})
	}

	// Appended in Seq order, so a stable sort breaks ts ties on Seq.
	slices.SortStableFunc(retained, func(a, b model.Event) int {
		return cmp.Compare(a.TS, b.TS)
	})

	s := &model.Stream{
		Events:     retained,
		MainThread: thread,
		Frames:     buildFrameTree(events),
	}

	switch {
	case n.origin != nil:
		s.TimeOrigin = *n.origin
	case len(retained) > 0:
		s.TimeOrigin = retained[0].TS
	case !math.IsInf(pushOut, -1):
		s.TimeOrigin = pushOut
	}

	s.TraceEnd = max(s.TimeOrigin, observedEnd, pushOut)
	return s, nil
}

// observedEndOf reports the end time of any event with a usable timestamp.
// Metadata records carry no timing and are skipped.
func observedEndOf(e *model.RawEvent) (float64, bool) {
	if e.Phase == model.PhaseMetadata || !finite(e.TS) || e.TS < 0 {
		return 0, false
	}
	if e.Dur != nil && (!finite(*e.Dur) || *e.Dur < 0) {
		return e.TS, true
	}
	return e.End(), true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func keepPhase(p model.Phase) bool {
	switch p {
	case model.PhaseBegin, model.PhaseEnd, model.PhaseComplete:
		return true
	}
	return p.IsInstant()
}

func (n *Normalizer) keepCategory(cat string) bool {
	if n.categories == nil {
		return true
	}
	for c := range strings.SplitSeq(cat, ",") {
		if _, ok := n.categories[strings.TrimSpace(c)]; ok {
			return true
		}
	}
	return false
}

func validate(e *model.RawEvent, seq int) error {
	ref := rawRef(e, seq)
	if math.IsNaN(e.TS) || math.IsInf(e.TS, 0) || e.TS < 0 {
		return model.NewTraceError(model.ErrMalformedEvent, fmt.Sprintf("invalid timestamp %v", e.TS), ref)
	}
	switch e.Phase {
	case model.PhaseBegin, model.PhaseEnd, model.PhaseComplete:
		if e.Name == "" {
			return model.NewTraceError(model.ErrMalformedEvent, "missing name", ref)
		}
	}
	if e.Phase == model.PhaseComplete {
		if e.Dur == nil || math.IsNaN(*e.Dur) || math.IsInf(*e.Dur, 0) || *e.Dur < 0 {
			return model.NewTraceError(model.ErrMalformedEvent, "complete event without a valid duration", ref)
		}
	}
	return nil
}
