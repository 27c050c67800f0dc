package classifier

import (
	"sync"
	"testing"

	"github.com/crimson-sun/timber/internal/engine/taxonomy"
	"github.com/crimson-sun/timber/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want model.TaskGroup
	}{
		{"ParseHTML", model.GroupParseHTML},
		{"Layout", model.GroupStyleLayout},
		{"UpdateLayoutTree", model.GroupStyleLayout},
		{"Paint", model.GroupPaintCompositeRender},
		{"v8.compile", model.GroupScriptParseCompile},
		{"EvaluateScript", model.GroupScriptEvaluation},
		{"TimerFire", model.GroupScriptEvaluation},
		{"MinorGC", model.GroupGarbageCollection},
		{"RunTask", model.GroupOther},
		{"SomethingNew", model.GroupOther},
		{"", model.GroupOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCatalogMatchesClassifier(t *testing.T) {
	for _, g := range taxonomy.DefaultGroups() {
		for _, name := range g.Events {
			if got := Classify(name); got != g.ID {
				t.Errorf("Classify(%q) = %q, catalog lists it under %q", name, got, g.ID)
			}
		}
	}
}

func TestClassifyConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if Classify("Paint") != model.GroupPaintCompositeRender {
					t.Error("Classify(Paint) changed under concurrency")
					return
				}
			}
		}()
	}
	wg.Wait()
}
