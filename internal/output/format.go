package output

import (
	"github.com/crimson-sun/timber/internal/engine/compactor"
	"github.com/crimson-sun/timber/internal/model"
)

// Report is the serialized form of a TraceResult.
type Report struct {
	ID         string             `json:"id,omitempty"`
	Source     string             `json:"source"`
	Error      string             `json:"error,omitempty"`
	TimeOrigin float64            `json:"time_origin,omitempty"`
	TraceEnd   float64            `json:"trace_end,omitempty"`
	MainThread *model.Thread      `json:"main_thread,omitempty"`
	Summary    *compactor.Summary `json:"summary,omitempty"`
	Tasks      []compactor.Entry  `json:"tasks,omitempty"`
}

// FormatResult converts a result into a Report with tasks trimmed according
// to verbosity. A failed result carries only its identity and error.
func FormatResult(r model.TraceResult, verbosity compactor.Verbosity) Report {
	rep := Report{ID: r.ID, Source: r.Source}
	if r.Err != nil {
		rep.Error = r.Err.Error()
		return rep
	}

	c := compactor.New(verbosity)
	summary := c.Summarize(r.Forest)
	rep.TimeOrigin = r.TimeOrigin
	rep.TraceEnd = r.TraceEnd
	if r.MainThread != (model.Thread{}) {
		mt := r.MainThread
		rep.MainThread = &mt
	}
	rep.Summary = &summary
	rep.Tasks = c.Compact(r.Forest)
	return rep
}
