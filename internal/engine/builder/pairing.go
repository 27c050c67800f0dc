package builder

import (
	"github.com/crimson-sun/timber/internal/model"
)

// pair turns begin/end and complete events into nodes. taskAt maps a
// stream index to the node created for that event, or -1.
//
// An end event closes the most recent open task with the same name, so
// interleaved begin/end pairs of different names still match. Tasks left
// open are unterminated and provisionally end at traceEnd.
func pair(events []model.Event, traceEnd float64) ([]node, []int, error) {
	nodes := make([]node, 0, len(events)/2)
	taskAt := make([]int, len(events))
	var open []int

	for i := range events {
		e := &events[i]
		taskAt[i] = -1
		switch e.Phase {
		case model.PhaseBegin:
			taskAt[i] = len(nodes)
			open = append(open, len(nodes))
			nodes = append(nodes, node{event: e, start: e.TS, parent: model.NoParent})

		case model.PhaseComplete:
			taskAt[i] = len(nodes)
			nodes = append(nodes, node{event: e, start: e.TS, end: e.End(), parent: model.NoParent})

		case model.PhaseEnd:
			j := len(open) - 1
			for j >= 0 && nodes[open[j]].event.Name != e.Name {
				j--
			}
			if j < 0 {
				return nil, nil, model.NewTraceError(model.ErrUnmatchedEnd,
					"no open task named "+e.Name, model.RefOf(e))
			}
			n := &nodes[open[j]]
			n.end = e.TS
			n.endEvent = e
			open = append(open[:j], open[j+1:]...)
		}
	}

	for _, idx := range open {
		nodes[idx].end = traceEnd
		nodes[idx].unbounded = true
	}
	return nodes, taskAt, nil
}
