package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/crimson-sun/timber/internal/engine/compactor"
	"github.com/crimson-sun/timber/internal/model"
)

func testResult(source string) model.TraceResult {
	return model.TraceResult{
		ID:         "run-" + source,
		Source:     source,
		MainThread: model.Thread{PID: 2, TID: 3},
		Forest: &model.Forest{
			Tasks: []model.Task{{
				Event:            &model.Event{RawEvent: model.RawEvent{Name: "RunTask", Cat: "toplevel"}},
				EndTime:          12.5,
				Duration:         12.5,
				SelfTime:         12.5,
				Parent:           model.NoParent,
				Group:            model.GroupOther,
				AttributableURLs: []string{"https://a.example/app.js"},
			}},
			Roots: []int{0},
		},
	}
}

func TestWriteProducesValidNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, compactor.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := range 5 {
		if err := out.Write(context.Background(), testResult(fmt.Sprintf("t%d.json", i))); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	for i, line := range lines {
		var rep map[string]any
		if err := json.Unmarshal([]byte(line), &rep); err != nil {
			t.Fatalf("line %d: invalid JSON: %v", i, err)
		}
		if want := fmt.Sprintf("t%d.json", i); rep["source"] != want {
			t.Errorf("line %d: source = %v, want %s", i, rep["source"], want)
		}
	}
}

func TestWriteMsgpack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.msgpack")
	out, err := New(path, compactor.Full, WithFormat(FormatMsgpack))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), testResult("a.json"))
	out.Write(context.Background(), model.TraceResult{Source: "b.json", Err: errors.New("no main thread")})
	out.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))

	var first map[string]any
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode first record: %v", err)
	}
	if first["source"] != "a.json" {
		t.Errorf("source = %v, want a.json", first["source"])
	}
	tasks, ok := first["tasks"].([]any)
	if !ok || len(tasks) != 1 {
		t.Fatalf("tasks = %v, want 1 entry", first["tasks"])
	}
	if task := tasks[0].(map[string]any); task["cat"] != "toplevel" {
		t.Errorf("cat = %v, want toplevel", task["cat"])
	}

	var second map[string]any
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("decode second record: %v", err)
	}
	if second["error"] != "no main thread" {
		t.Errorf("error = %v, want no main thread", second["error"])
	}
	if _, ok := second["tasks"]; ok {
		t.Error("failed result should not carry tasks")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatNDJSON, false},
		{"ndjson", FormatNDJSON, false},
		{"msgpack", FormatMsgpack, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRotationTriggersAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	// Each line is well over 100 bytes, so every write after the first rotates.
	out, err := New(path, compactor.Standard, WithMaxSize(100))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for range 3 {
		if err := out.Write(context.Background(), testResult("big.json")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	out.Close()

	for _, p := range []string{path, path + ".1", path + ".2"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", p)
		}
	}
}

func TestCloseFlushesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, compactor.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	out.Write(context.Background(), testResult("a.json"))
	out.Close()

	data, _ := os.ReadFile(path)
	if len(data) == 0 {
		t.Error("file is empty, Close did not flush buffered data")
	}
}

func TestVerbosityMinimalStripsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, compactor.Minimal)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	out.Write(context.Background(), testResult("a.json"))
	out.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "app.js") {
		t.Error("Minimal verbosity should strip attributed URLs")
	}
}

func TestConcurrentWritesSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := New(path, compactor.Standard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.Write(context.Background(), testResult("a.json"))
		}()
	}
	wg.Wait()
	out.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 50 {
		t.Errorf("got %d lines, want 50", len(lines))
	}
}
