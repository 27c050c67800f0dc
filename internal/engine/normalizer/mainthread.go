package normalizer

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
	"github.com/tidwall/gjson"

	"github.com/crimson-sun/timber/internal/model"
)

const (
	startedInBrowser = "TracingStartedInBrowser"
	startedInPage    = "TracingStartedInPage"
	threadNameEvent  = "thread_name"
	rendererMain     = "CrRendererMain"
)

// findMainThread locates the renderer main thread of the traced page: the
// CrRendererMain thread of the process that hosts the main frame.
func findMainThread(events []model.RawEvent) (model.Thread, error) {
	var pids []int
	var markers []model.EventRef
	pageTID := map[int]int{}

	for i := range events {
		e := &events[i]
		switch e.Name {
		case startedInBrowser:
			markers = append(markers, rawRef(e, i))
			for _, f := range gjson.GetBytes(e.Args, "data.frames").Array() {
				if !isMainFrame(f) {
					continue
				}
				id := f.Get("processId")
				pid, err := safecast.Convert[int](id.Float())
				if !id.Exists() || err != nil {
					continue
				}
				if !slices.Contains(pids, pid) {
					pids = append(pids, pid)
				}
			}
		case startedInPage:
			markers = append(markers, rawRef(e, i))
			if !slices.Contains(pids, e.PID) {
				pids = append(pids, e.PID)
			}
			pageTID[e.PID] = e.TID
		}
	}

	switch len(pids) {
	case 0:
		return model.Thread{}, model.NewTraceError(model.ErrNoMainThread,
			"no "+startedInBrowser+" or "+startedInPage+" marker with a main frame", markers...)
	case 1:
	default:
		return model.Thread{}, model.NewTraceError(model.ErrNoMainThread,
			fmt.Sprintf("main frame reported in %d processes %v", len(pids), pids), markers...)
	}
	pid := pids[0]

	var tids []int
	for i := range events {
		e := &events[i]
		if e.Phase != model.PhaseMetadata || e.Name != threadNameEvent || e.PID != pid {
			continue
		}
		if gjson.GetBytes(e.Args, "name").String() == rendererMain && !slices.Contains(tids, e.TID) {
			tids = append(tids, e.TID)
		}
	}

	switch len(tids) {
	case 1:
		return model.Thread{PID: pid, TID: tids[0]}, nil
	case 0:
		if tid, ok := pageTID[pid]; ok {
			return model.Thread{PID: pid, TID: tid}, nil
		}
		return model.Thread{}, model.NewTraceError(model.ErrNoMainThread,
			fmt.Sprintf("process %d has no %s thread", pid, rendererMain), markers...)
	default:
		return model.Thread{}, model.NewTraceError(model.ErrNoMainThread,
			fmt.Sprintf("process %d has %d %s threads %v", pid, len(tids), rendererMain, tids), markers...)
	}
}

// isMainFrame reports whether an entry of TracingStartedInBrowser's frame
// list is the outermost frame of the page.
func isMainFrame(f gjson.Result) bool {
	if outermost := f.Get("isOutermostMainFrame"); outermost.Exists() {
		return outermost.Bool()
	}
	return f.Get("parent").String() == ""
}

func rawRef(e *model.RawEvent, seq int) model.EventRef {
	return model.EventRef{Seq: seq, Name: e.Name, Phase: e.Phase, TS: e.TS}
}
