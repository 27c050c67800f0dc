package model

// TaskGroup is the semantic category of a task.
type TaskGroup string

const (
	GroupParseHTML            TaskGroup = "parseHTML"
	GroupStyleLayout          TaskGroup = "styleLayout"
	GroupPaintCompositeRender TaskGroup = "paintCompositeRender"
	GroupScriptParseCompile   TaskGroup = "scriptParseCompile"
	GroupScriptEvaluation     TaskGroup = "scriptEvaluation"
	GroupGarbageCollection    TaskGroup = "garbageCollection"
	GroupOther                TaskGroup = "other"
)

// GroupInfo describes a task group for display.
type GroupInfo struct {
	ID     TaskGroup `json:"id"`
	Label  string    `json:"label"`
	Desc   string    `json:"description,omitempty"`
	Events []string  `json:"events"` // event names classified into this group
}

// NoParent marks a root task.
const NoParent = -1

// Task is a reconstructed span of main-thread work. Times are milliseconds
// relative to the trace's time origin.
type Task struct {
	Event    *Event
	EndEvent *Event // nil for complete events and unterminated tasks

	StartTime float64
	EndTime   float64
	Duration  float64
	SelfTime  float64

	Parent   int   // index into Forest.Tasks, NoParent for roots
	Children []int // indices into Forest.Tasks, in discovery order

	Group            TaskGroup
	AttributableURLs []string
	Unbounded        bool
}

// Forest is the flat, pre-order list of tasks of one trace.
type Forest struct {
	Tasks []Task
	Roots []int
}

// Walk visits every task below index i (inclusive) in pre-order.
func (f *Forest) Walk(i int, fn func(idx int, t *Task)) {
	fn(i, &f.Tasks[i])
	for _, c := range f.Tasks[i].Children {
		f.Walk(c, fn)
	}
}
