// Package builder reconstructs the main-thread task forest from a
// normalized event stream.
package builder

import (
	"github.com/crimson-sun/timber/internal/engine/classifier"
	"github.com/crimson-sun/timber/internal/engine/dedup"
	"github.com/crimson-sun/timber/internal/model"
)

// JitterTolerance is how far, in microseconds, a child may overrun its
// parent's bounds before the overlap is treated as a real crossing.
const JitterTolerance = 1000.0

// node is a task under construction. Times are absolute microseconds.
type node struct {
	event     *model.Event
	endEvent  *model.Event
	start     float64
	end       float64
	unbounded bool
	parent    int
	children  []int
}

// Build reconstructs the task forest of s. Any fatal condition aborts the
// whole trace and no partial forest is returned. s is read, never written.
func Build(s *model.Stream) (*model.Forest, error) {
	nodes, taskAt, err := pair(s.Events, s.TraceEnd)
	if err != nil {
		return nil, err
	}
	roots, err := nest(nodes)
	if err != nil {
		return nil, err
	}
	own := ownURLs(s.Events, taskAt, len(nodes))
	return finalize(s, nodes, roots, own), nil
}

// finalize lays the nodes out in pre-order and derives timing, group and
// attribution for every task.
func finalize(s *model.Stream, nodes []node, roots []int, own [][]string) *model.Forest {
	order := preorder(nodes, roots)
	pos := make([]int, len(nodes))
	for i, n := range order {
		pos[n] = i
	}

	f := &model.Forest{
		Tasks: make([]model.Task, len(order)),
		Roots: make([]int, len(roots)),
	}
	for i, r := range roots {
		f.Roots[i] = pos[r]
	}

	frames := make([]string, len(order))
	for i, ni := range order {
		n := &nodes[ni]
		t := &f.Tasks[i]
		t.Event = n.event
		t.EndEvent = n.endEvent
		t.StartTime = (n.start - s.TimeOrigin) / 1000
		t.EndTime = (n.end - s.TimeOrigin) / 1000
		t.Duration = t.EndTime - t.StartTime
		t.Unbounded = n.unbounded
		t.Parent = model.NoParent
		if n.parent != model.NoParent {
			t.Parent = pos[n.parent]
		}
		if len(n.children) > 0 {
			t.Children = make([]int, len(n.children))
			for j, c := range n.children {
				t.Children[j] = pos[c]
			}
		}

		// Parents precede children in pre-order.
		t.Group = classifier.Classify(n.event.Name)
		frames[i] = n.event.Payload.FrameID
		if t.Parent != model.NoParent {
			if t.Group == model.GroupOther {
				t.Group = f.Tasks[t.Parent].Group
			}
			if frames[i] == "" {
				frames[i] = frames[t.Parent]
			}
		}
	}

	// Children follow their parent, so walking backwards sees every child
	// before its parent.
	for i := len(order) - 1; i >= 0; i-- {
		t := &f.Tasks[i]
		var childTime float64
		for _, c := range t.Children {
			childTime += f.Tasks[c].Duration
		}
		t.SelfTime = max(0, t.Duration-childTime)

		var urls dedup.Set
		urls.AddAll(own[order[i]])
		if urls.Len() == 0 && frames[i] != "" {
			urls.Add(s.Frames[frames[i]])
		}
		for _, c := range t.Children {
			urls.AddAll(f.Tasks[c].AttributableURLs)
		}
		t.AttributableURLs = urls.Values()
	}
	return f
}

func preorder(nodes []node, roots []int) []int {
	order := make([]int, 0, len(nodes))
	stack := make([]int, 0, 16)
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)
		children := nodes[n].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return order
}
