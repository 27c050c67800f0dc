package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/timber/internal/engine/builder"
	"github.com/crimson-sun/timber/internal/engine/normalizer"
	"github.com/crimson-sun/timber/internal/engine/taxonomy"
	"github.com/crimson-sun/timber/internal/model"
)

const defaultConcurrency = 4

// Engine orchestrates the normalize → build pipeline.
type Engine struct {
	taxonomy    *taxonomy.Taxonomy
	categories  []string
	concurrency int
	origin      *float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithCategories restricts analysis to events of the given categories.
func WithCategories(cats []string) Option {
	return func(e *Engine) { e.categories = cats }
}

// WithTimeOrigin sets the time origin (µs) for traces that do not carry
// their own.
func WithTimeOrigin(us float64) Option {
	return func(e *Engine) { e.origin = &us }
}

// WithConcurrency bounds how many traces ProcessBatch analyzes at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates an Engine with the provided taxonomy.
func New(tax *taxonomy.Taxonomy, opts ...Option) *Engine {
	e := &Engine{taxonomy: tax, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Taxonomy returns the task group catalog the engine classifies into.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy {
	return e.taxonomy
}

// Process reconstructs the task forest of a single trace. On failure the
// returned result carries the error as well, with no forest.
func (e *Engine) Process(raw model.RawTrace) (model.TraceResult, error) {
	result := model.TraceResult{Source: raw.Source}

	origin := raw.TimeOrigin
	if origin == nil {
		origin = e.origin
	}
	n := normalizer.New(normalizer.Options{TimeOrigin: origin, Categories: e.categories})
	stream, err := n.Normalize(raw.Events)
	if err != nil {
		result.Err = err
		return result, err
	}
	result.TimeOrigin = stream.TimeOrigin
	result.TraceEnd = stream.TraceEnd
	result.MainThread = stream.MainThread

	forest, err := builder.Build(stream)
	if err != nil {
		result.Err = err
		return result, err
	}
	result.Forest = forest
	return result, nil
}

// ProcessBatch analyzes traces concurrently and returns one result per
// trace in input order. A trace that fails analysis yields a result with
// Err set and does not affect the others; only cancellation of ctx is
// returned as an error.
func (e *Engine) ProcessBatch(ctx context.Context, raws []model.RawTrace) ([]model.TraceResult, error) {
	results := make([]model.TraceResult, len(raws))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], _ = e.Process(raws[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("engine batch: %w", err)
	}
	return results, nil
}
