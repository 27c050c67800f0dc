package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crimson-sun/timber/internal/connector"
	"github.com/crimson-sun/timber/internal/model"
)

const defaultSettle = 250 * time.Millisecond

var traceSuffixes = []string{".json", ".json.gz"}

func init() {
	connector.Register("file", func() connector.Connector {
		return &Connector{}
	})
}

// Connector reads trace files from the local filesystem.
type Connector struct{}

// Query reads the traces named by params.Sources, each a file, directory
// or glob. With no sources the configured endpoint directory is read.
func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.RawTrace, error) {
	sources := params.Sources
	if len(sources) == 0 {
		if cfg.Endpoint == "" {
			return nil, errors.New("file connector: no sources and no endpoint directory")
		}
		sources = []string{cfg.Endpoint}
	}

	paths, err := expand(sources)
	if err != nil {
		return nil, fmt.Errorf("file connector: %w", err)
	}

	var results []model.RawTrace
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("file connector: %w", err)
		}
		if !params.InWindow(info.ModTime()) {
			continue
		}

		tr, err := readTrace(p)
		if err != nil {
			return nil, fmt.Errorf("file connector: %w", err)
		}
		results = append(results, tr)
		if params.Limit > 0 && len(results) >= params.Limit {
			break
		}
	}
	return results, nil
}

// Stream watches the endpoint directory and emits every trace file written
// to it once the file has been quiet for the settle period (Extra["settle"],
// default 250ms). Extra["initial"] = "true" emits existing files first.
func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.RawTrace, error) {
	dir := cfg.Endpoint
	if dir == "" {
		return nil, errors.New("file connector: missing endpoint directory")
	}

	settle := defaultSettle
	if raw := cfg.Extra["settle"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			settle = d
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file connector: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("file connector: watch %s: %w", dir, err)
	}

	var initial []string
	if cfg.Extra["initial"] == "true" {
		if initial, err = expand([]string{dir}); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("file connector: %w", err)
		}
	}

	ch := make(chan model.RawTrace, 16)
	go func() {
		defer close(ch)
		defer watcher.Close()

		for _, p := range initial {
			if !emit(ctx, p, ch) {
				return
			}
		}

		// Writers produce several events per file; wait until one has been
		// quiet for the settle period before reading it.
		pending := make(map[string]time.Time)
		ticker := time.NewTicker(settle / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
					if isTraceFile(ev.Name) {
						pending[ev.Name] = time.Now()
					}
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watch error", "connector", "file", "error", err)

			case now := <-ticker.C:
				var ready []string
				for p, last := range pending {
					if now.Sub(last) >= settle {
						ready = append(ready, p)
					}
				}
				slices.Sort(ready)
				for _, p := range ready {
					delete(pending, p)
					if !emit(ctx, p, ch) {
						return
					}
				}
			}
		}
	}()

	return ch, nil
}

// emit reads path and sends it on ch. Unreadable traces are logged and
// skipped. Returns false once ctx is done.
func emit(ctx context.Context, path string, ch chan<- model.RawTrace) bool {
	tr, err := readTrace(path)
	if err != nil {
		slog.Warn("skipping trace", "connector", "file", "path", path, "error", err)
		return ctx.Err() == nil
	}
	select {
	case ch <- tr:
		return true
	case <-ctx.Done():
		return false
	}
}

func readTrace(path string) (model.RawTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RawTrace{}, err
	}
	defer f.Close()

	events, err := connector.Decode(f)
	if err != nil {
		return model.RawTrace{}, fmt.Errorf("%s: %w", path, err)
	}
	return model.RawTrace{Source: path, Events: events}, nil
}

// expand resolves sources into trace file paths, keeping first-seen order.
// Directories contribute their trace files in name order; globs contribute
// their sorted matches.
func expand(sources []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, src := range sources {
		if strings.ContainsAny(src, "*?[") {
			matches, err := filepath.Glob(src)
			if err != nil {
				return nil, fmt.Errorf("glob %q: %w", src, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no traces match %q", src)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(src)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(src)
			continue
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && isTraceFile(e.Name()) {
				add(filepath.Join(src, e.Name()))
			}
		}
	}
	return paths, nil
}

func isTraceFile(name string) bool {
	for _, s := range traceSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
