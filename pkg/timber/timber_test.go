package timber

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/klauspost/compress/gzip"

	"github.com/crimson-sun/timber/internal/engine/testdata"
	"github.com/crimson-sun/timber/internal/model"
)

func newTimber(t *testing.T, opts ...Option) *Timber {
	t.Helper()
	tb, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return tb
}

// public converts builder output into the public event type.
func public(raws []model.RawEvent) []TraceEvent {
	events := make([]TraceEvent, len(raws))
	for i, e := range raws {
		events[i] = TraceEvent{
			Phase: string(e.Phase), Name: e.Name, Cat: e.Cat,
			PID: e.PID, TID: e.TID, TS: e.TS, Dur: e.Dur, Args: e.Args,
		}
	}
	return events
}

func TestTasks(t *testing.T) {
	events := public(testdata.NewTrace().
		Begin("RunTask", 0, "").
		Complete("FunctionCall", 10, 20, `{"url":"https://a.example/app.js"}`).
		End("RunTask", 50).
		Events())

	res, err := newTimber(t).Tasks(events)
	if err != nil {
		t.Fatalf("Tasks() error: %v", err)
	}

	want := []Task{
		{Name: "RunTask", Category: "devtools.timeline", End: 50, Duration: 50, SelfTime: 30,
			Group: "other", Parent: -1, Children: []int{1}, URLs: []string{"https://a.example/app.js"}},
		{Name: "FunctionCall", Category: "devtools.timeline", Start: 10, End: 30, Duration: 20, SelfTime: 20,
			Group: "scriptEvaluation", Parent: 0, URLs: []string{"https://a.example/app.js"}},
	}
	if diff := cmp.Diff(want, res.Tasks, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Tasks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, res.Roots); diff != "" {
		t.Errorf("Roots mismatch (-want +got):\n%s", diff)
	}
	if res.PID != testdata.RendererPID || res.TID != testdata.MainTID {
		t.Errorf("main thread = %d/%d, want %d/%d", res.PID, res.TID, testdata.RendererPID, testdata.MainTID)
	}
}

func TestTasksErrors(t *testing.T) {
	tests := []struct {
		name   string
		events []model.RawEvent
		want   error
	}{
		{"unmatched end", testdata.NewTrace().End("RunTask", 5).Events(), ErrUnmatchedEnd},
		{"crossing", testdata.NewTrace().Complete("A", 0, 10, "").Complete("B", 5, 10, "").Events(), ErrAmbiguousNesting},
		{"no main thread", []model.RawEvent{{Phase: model.PhaseComplete, Name: "A", Dur: new(float64)}}, ErrNoMainThread},
	}
	tb := newTimber(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tb.Tasks(public(tt.events))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Tasks() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTasksDoesNotMutateInput(t *testing.T) {
	events := public(testdata.NewTrace().Complete("B", 20, 1, "").Complete("A", 10, 1, "").Events())
	before := make([]TraceEvent, len(events))
	copy(before, events)

	if _, err := newTimber(t).Tasks(events); err != nil {
		t.Fatalf("Tasks() error: %v", err)
	}
	if diff := cmp.Diff(before, events); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestTasksFromJSONSample(t *testing.T) {
	res, err := newTimber(t).TasksFromJSON(testdata.SampleTrace())
	if err != nil {
		t.Fatalf("TasksFromJSON() error: %v", err)
	}
	if res.PID != 7 || res.TID != 11 {
		t.Errorf("main thread = %d/%d, want 7/11", res.PID, res.TID)
	}
	if len(res.Roots) != 4 {
		t.Errorf("roots = %d, want 4", len(res.Roots))
	}
}

func TestTasksFromJSONNotTrace(t *testing.T) {
	if _, err := newTimber(t).TasksFromJSON([]byte(`{"foo":1}`)); err == nil {
		t.Fatal("expected error for a non-trace document")
	}
}

func TestTasksFromReaderGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(testdata.SampleTrace())
	zw.Close()

	tb := newTimber(t)
	fromGzip, err := tb.TasksFromReader(&buf)
	if err != nil {
		t.Fatalf("TasksFromReader() error: %v", err)
	}
	fromJSON, err := tb.TasksFromJSON(testdata.SampleTrace())
	if err != nil {
		t.Fatalf("TasksFromJSON() error: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromGzip); diff != "" {
		t.Errorf("gzip result differs (-json +gzip):\n%s", diff)
	}
}

func TestWithTimeOrigin(t *testing.T) {
	events := public(testdata.NewTrace().Complete("RunTask", 10, 5, "").Events())

	res, err := newTimber(t, WithTimeOrigin(0)).Tasks(events)
	if err != nil {
		t.Fatalf("Tasks() error: %v", err)
	}
	if res.TimeOrigin != 0 || res.Tasks[0].Start != 10 {
		t.Errorf("origin/start = %v/%v, want 0/10", res.TimeOrigin, res.Tasks[0].Start)
	}
}

func TestWithCategories(t *testing.T) {
	events := public(testdata.NewTrace().Complete("Layout", 1, 1, "").Events())
	res, err := newTimber(t, WithCategories("v8")).Tasks(events)
	if err != nil {
		t.Fatalf("Tasks() error: %v", err)
	}
	if len(res.Tasks) != 0 {
		t.Errorf("tasks = %d, want 0 outside the category filter", len(res.Tasks))
	}
}

func TestTasksBatch(t *testing.T) {
	traces := []Trace{
		{Source: "ok", Events: public(testdata.NewTrace().Complete("RunTask", 0, 5, "").Events())},
		{Source: "broken", Events: public(testdata.NewTrace().End("RunTask", 5).Events())},
	}
	results, err := newTimber(t, WithConcurrency(2)).TasksBatch(context.Background(), traces)
	if err != nil {
		t.Fatalf("TasksBatch() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Source != "ok" || results[0].Err != nil || len(results[0].Tasks) != 1 {
		t.Errorf("results[0] = %+v, want one task", results[0])
	}
	if results[1].Source != "broken" || !errors.Is(results[1].Err, ErrUnmatchedEnd) {
		t.Errorf("results[1].Err = %v, want %v", results[1].Err, ErrUnmatchedEnd)
	}
}

func TestNewBadConcurrency(t *testing.T) {
	if _, err := New(WithConcurrency(0)); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}

func TestGroups(t *testing.T) {
	groups := newTimber(t).Groups()
	if len(groups) != 7 {
		t.Fatalf("len(Groups()) = %d, want 7", len(groups))
	}
	if groups[0].ID != "parseHTML" || groups[len(groups)-1].ID != "other" {
		t.Errorf("group order = %s..%s, want parseHTML..other", groups[0].ID, groups[len(groups)-1].ID)
	}
	for _, g := range groups {
		if g.Label == "" {
			t.Errorf("group %s has no label", g.ID)
		}
	}
}
