package main

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crimson-sun/timber/internal/config"
	"github.com/crimson-sun/timber/internal/engine/taxonomy"
	"github.com/crimson-sun/timber/internal/output/async"
	"github.com/crimson-sun/timber/internal/output/multi"
	"github.com/crimson-sun/timber/internal/output/stdout"
)

func TestSplitSources(t *testing.T) {
	urls, paths := splitSources([]string{"a.json", "https://x.example/t.json", "traces/*.json.gz", "http://y.example/t"})
	if diff := cmp.Diff([]string{"https://x.example/t.json", "http://y.example/t"}, urls); diff != "" {
		t.Errorf("urls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.json", "traces/*.json.gz"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildOutput(t *testing.T) {
	tax := taxonomy.New(taxonomy.DefaultGroups())
	base := config.Config{Engine: config.EngineConfig{Verbosity: "standard"}}

	cfg := base
	cfg.Output = config.OutputConfig{Format: "stdout", Render: "text"}
	out, err := buildOutput(cfg, tax)
	if err != nil {
		t.Fatalf("buildOutput() error: %v", err)
	}
	if _, ok := out.(*stdout.Output); !ok {
		t.Errorf("single stdout output = %T, want *stdout.Output", out)
	}

	cfg = base
	cfg.Output = config.OutputConfig{
		Format:     "stdout,file",
		Render:     "json",
		Path:       filepath.Join(t.TempDir(), "out.jsonl"),
		FileFormat: "ndjson",
		Async:      true,
	}
	out, err = buildOutput(cfg, tax)
	if err != nil {
		t.Fatalf("buildOutput() error: %v", err)
	}
	if _, ok := out.(*multi.Multi); !ok {
		t.Errorf("two outputs = %T, want *multi.Multi", out)
	}
	if err := out.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	cfg = base
	cfg.Output = config.OutputConfig{Format: "webhook", WebhookURL: "http://127.0.0.1:1/hook", Async: true}
	out, err = buildOutput(cfg, tax)
	if err != nil {
		t.Fatalf("buildOutput() error: %v", err)
	}
	if _, ok := out.(*async.Async); !ok {
		t.Errorf("async webhook = %T, want *async.Async", out)
	}
	// Nothing was written, so closing does not touch the network.
	if err := out.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestBuildOutputBadVerbosity(t *testing.T) {
	cfg := config.Config{
		Engine: config.EngineConfig{Verbosity: "loud"},
		Output: config.OutputConfig{Format: "stdout"},
	}
	if _, err := buildOutput(cfg, taxonomy.New(taxonomy.DefaultGroups())); err == nil {
		t.Fatal("expected error for unknown verbosity")
	}
}
