package timber

import (
	"context"
	"fmt"
	"io"

	"github.com/crimson-sun/timber/internal/connector"
	"github.com/crimson-sun/timber/internal/engine"
	"github.com/crimson-sun/timber/internal/engine/taxonomy"
	"github.com/crimson-sun/timber/internal/model"
)

// Timber analyzes traces. Safe for concurrent use.
type Timber struct {
	engine *engine.Engine
}

// New creates a Timber instance.
func New(opts ...Option) (*Timber, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		return nil, fmt.Errorf("timber: concurrency must be at least 1, got %d", o.concurrency)
	}

	engOpts := []engine.Option{
		engine.WithCategories(o.categories),
		engine.WithConcurrency(o.concurrency),
	}
	if o.timeOrigin != nil {
		engOpts = append(engOpts, engine.WithTimeOrigin(*o.timeOrigin))
	}
	return &Timber{engine: engine.New(taxonomy.New(taxonomy.DefaultGroups()), engOpts...)}, nil
}

// Tasks reconstructs the task tree of events. events is not modified.
func (t *Timber) Tasks(events []TraceEvent) (Result, error) {
	return t.process(toRaw(events))
}

// TasksFromJSON decodes a trace, either a bare event array or an object
// with a traceEvents field, and reconstructs its task tree.
func (t *Timber) TasksFromJSON(data []byte) (Result, error) {
	events, err := connector.DecodeBytes(data)
	if err != nil {
		return Result{}, fmt.Errorf("timber: %w", err)
	}
	return t.process(events)
}

// TasksFromReader is TasksFromJSON over a stream, which may be gzipped.
func (t *Timber) TasksFromReader(r io.Reader) (Result, error) {
	events, err := connector.Decode(r)
	if err != nil {
		return Result{}, fmt.Errorf("timber: %w", err)
	}
	return t.process(events)
}

// TasksBatch analyzes traces concurrently. It returns one Result per trace
// in input order; a trace that fails has Result.Err set. The error is
// non-nil only when ctx ends first.
func (t *Timber) TasksBatch(ctx context.Context, traces []Trace) ([]Result, error) {
	raws := make([]model.RawTrace, len(traces))
	for i, tr := range traces {
		raws[i] = model.RawTrace{Source: tr.Source, Events: toRaw(tr.Events)}
	}
	rs, err := t.engine.ProcessBatch(ctx, raws)
	if err != nil {
		return nil, fmt.Errorf("timber: %w", err)
	}
	results := make([]Result, len(rs))
	for i, r := range rs {
		results[i] = resultFrom(r)
	}
	return results, nil
}

// Groups returns the task group catalog in display order.
func (t *Timber) Groups() []Group {
	infos := t.engine.Taxonomy().Groups()
	groups := make([]Group, len(infos))
	for i, g := range infos {
		groups[i] = Group{
			ID:          string(g.ID),
			Label:       g.Label,
			Description: g.Desc,
			Events:      g.Events,
		}
	}
	return groups
}

func (t *Timber) process(events []model.RawEvent) (Result, error) {
	r, err := t.engine.Process(model.RawTrace{Events: events})
	if err != nil {
		return Result{}, fmt.Errorf("timber: %w", err)
	}
	return resultFrom(r), nil
}
