package builder

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/crimson-sun/timber/internal/model"
)

// nest assigns every node to the innermost task containing it and returns
// the roots in start order.
func nest(nodes []node) ([]int, error) {
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		na, nb := &nodes[a], &nodes[b]
		if c := cmp.Compare(na.start, nb.start); c != 0 {
			return c
		}
		if c := cmp.Compare(nb.end, na.end); c != 0 {
			return c
		}
		// A complete event spanning the same interval as a begin/end pair
		// adopts it.
		ca, cb := na.event.Phase == model.PhaseComplete, nb.event.Phase == model.PhaseComplete
		if ca != cb {
			if ca {
				return -1
			}
			return 1
		}
		return cmp.Compare(na.event.Seq, nb.event.Seq)
	})

	var roots, stack []int
	attach := func(child, parent int) {
		nodes[child].parent = parent
		if parent == model.NoParent {
			roots = append(roots, child)
			return
		}
		nodes[parent].children = append(nodes[parent].children, child)
	}
	detachLast := func(child int) {
		if p := nodes[child].parent; p != model.NoParent {
			nodes[p].children = nodes[p].children[:len(nodes[p].children)-1]
		} else {
			roots = roots[:len(roots)-1]
		}
	}

	for _, next := range order {
		n := &nodes[next]
		for len(stack) > 0 && nodes[stack[len(stack)-1]].end <= n.start {
			stack = stack[:len(stack)-1]
		}

		adopted := -1
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			t := &nodes[top]
			if !n.unbounded && n.end-t.end >= JitterTolerance {
				if n.start-t.start >= JitterTolerance {
					return nil, crossing(t, n)
				}
				// Same start within tolerance but n outlives t: the two
				// were recorded in the wrong order, so n becomes t's parent.
				// t is the most recent task attached to its parent.
				detachLast(top)
				stack = stack[:len(stack)-1]
				n.start = t.start
				adopted = top
			}
		}

		if err := fit(nodes, stack, next); err != nil {
			return nil, err
		}

		parent := model.NoParent
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		attach(next, parent)
		stack = append(stack, next)
		if adopted >= 0 {
			attach(adopted, next)
			stack = append(stack, adopted)
		}
	}
	return roots, nil
}

// fit makes the open ancestors on stack contain next. Unterminated tasks
// are clipped to the innermost ancestor; overruns within JitterTolerance
// extend the ancestors.
func fit(nodes []node, stack []int, next int) error {
	n := &nodes[next]
	for i := len(stack) - 1; i >= 0; i-- {
		a := &nodes[stack[i]]
		if n.end <= a.end {
			return nil
		}
		if n.unbounded {
			n.end = a.end
			return nil
		}
		if n.end-a.end >= JitterTolerance {
			return crossing(a, n)
		}
		a.end = n.end
	}
	return nil
}

func crossing(parent, child *node) error {
	return model.NewTraceError(model.ErrAmbiguousNesting,
		fmt.Sprintf("%q [%.0f, %.0f] crosses %q [%.0f, %.0f]",
			child.event.Name, child.start, child.end,
			parent.event.Name, parent.start, parent.end),
		model.RefOf(parent.event), model.RefOf(child.event))
}
