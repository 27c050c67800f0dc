package timber

import (
	"encoding/json"

	"github.com/crimson-sun/timber/internal/model"
)

// Analysis failures. Use errors.Is to match them.
var (
	ErrNoMainThread     = model.ErrNoMainThread
	ErrUnmatchedEnd     = model.ErrUnmatchedEnd
	ErrAmbiguousNesting = model.ErrAmbiguousNesting
	ErrMalformedEvent   = model.ErrMalformedEvent
)

// TraceEvent is one record of a trace in the Chrome trace event format.
type TraceEvent struct {
	Phase string          `json:"ph"`
	Name  string          `json:"name"`
	Cat   string          `json:"cat"`
	PID   int             `json:"pid"`
	TID   int             `json:"tid"`
	TS    float64         `json:"ts"`            // microseconds
	Dur   *float64        `json:"dur,omitempty"` // microseconds
	Args  json.RawMessage `json:"args,omitempty"`
}

// Trace is a named list of events for TasksBatch.
type Trace struct {
	Source string
	Events []TraceEvent
}

// Task is one span of main-thread work. Times are milliseconds from the
// trace's time origin; Parent and Children index Result.Tasks.
type Task struct {
	Name      string   `json:"name"`
	Category  string   `json:"cat,omitempty"`
	Start     float64  `json:"start"`
	End       float64  `json:"end"`
	Duration  float64  `json:"duration"`
	SelfTime  float64  `json:"self_time"`
	Group     string   `json:"group"`
	Parent    int      `json:"parent"` // -1 for top-level tasks
	Children  []int    `json:"children,omitempty"`
	URLs      []string `json:"urls,omitempty"`
	Unbounded bool     `json:"unbounded,omitempty"` // never ended within the trace
}

// Result is the task tree of one trace. Tasks are in pre-order.
type Result struct {
	Source     string  `json:"source,omitempty"`
	TimeOrigin float64 `json:"time_origin"` // microseconds
	TraceEnd   float64 `json:"trace_end"`   // microseconds
	PID        int     `json:"pid"`
	TID        int     `json:"tid"`
	Tasks      []Task  `json:"tasks"`
	Roots      []int   `json:"roots"`
	Err        error   `json:"-"` // set by TasksBatch for traces that failed
}

// Group describes a task group.
type Group struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Events      []string `json:"events"`
}

func toRaw(events []TraceEvent) []model.RawEvent {
	raws := make([]model.RawEvent, len(events))
	for i, e := range events {
		raws[i] = model.RawEvent{
			Phase: model.Phase(e.Phase),
			Name:  e.Name,
			Cat:   e.Cat,
			PID:   e.PID,
			TID:   e.TID,
			TS:    e.TS,
			Dur:   e.Dur,
			Args:  e.Args,
		}
	}
	return raws
}

func resultFrom(r model.TraceResult) Result {
	res := Result{
		Source:     r.Source,
		TimeOrigin: r.TimeOrigin,
		TraceEnd:   r.TraceEnd,
		PID:        r.MainThread.PID,
		TID:        r.MainThread.TID,
		Err:        r.Err,
	}
	if r.Forest == nil {
		return res
	}
	res.Roots = r.Forest.Roots
	res.Tasks = make([]Task, len(r.Forest.Tasks))
	for i := range r.Forest.Tasks {
		t := &r.Forest.Tasks[i]
		res.Tasks[i] = Task{
			Name:      t.Event.Name,
			Category:  t.Event.Cat,
			Start:     t.StartTime,
			End:       t.EndTime,
			Duration:  t.Duration,
			SelfTime:  t.SelfTime,
			Group:     string(t.Group),
			Parent:    t.Parent,
			Children:  t.Children,
			URLs:      t.AttributableURLs,
			Unbounded: t.Unbounded,
		}
	}
	return res
}
