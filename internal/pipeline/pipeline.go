package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/timber/internal/connector"
	"github.com/crimson-sun/timber/internal/model"
	"github.com/crimson-sun/timber/internal/output"
)

// Processor analyzes traces. *engine.Engine satisfies it.
type Processor interface {
	Process(raw model.RawTrace) (model.TraceResult, error)
	ProcessBatch(ctx context.Context, raws []model.RawTrace) ([]model.TraceResult, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatchWindow makes Stream collect arriving traces for up to window
// (or until maxSize are pending) and analyze them as one concurrent batch.
// A trace that arrives again before the flush replaces its earlier version.
// A zero window analyzes each trace as it arrives.
func WithBatchWindow(window time.Duration, maxSize int) Option {
	return func(p *Pipeline) {
		p.window = window
		p.maxBatch = maxSize
	}
}

// Pipeline connects a connector, processor, and output.
type Pipeline struct {
	connector connector.Connector
	processor Processor
	output    output.Output
	window    time.Duration
	maxBatch  int

	analyzed atomic.Int64
	failed   atomic.Int64
}

// New creates a Pipeline from the given components.
func New(conn connector.Connector, proc Processor, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: conn,
		processor: proc,
		output:    out,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream analyzes traces as the connector produces them. Blocks until the
// context is cancelled, the connector closes its channel, or an output
// fails. Traces that fail analysis are reported and do not stop the stream.
func (p *Pipeline) Stream(ctx context.Context, cfg connector.ConnectorConfig) error {
	ch, err := p.connector.Stream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline stream: %w", err)
	}
	if p.window > 0 {
		return p.streamBatched(ctx, ch)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			result, _ := p.processor.Process(raw)
			if err := p.emit(ctx, result); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) streamBatched(ctx context.Context, ch <-chan model.RawTrace) error {
	buf := newStreamBuffer(p.window, p.maxBatch)
	for {
		select {
		case <-ctx.Done():
			// Analyze what already arrived before giving up.
			if err := p.processBatch(context.WithoutCancel(ctx), buf.take()); err != nil {
				return err
			}
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return p.processBatch(ctx, buf.take())
			}
			if buf.add(raw) {
				if err := p.processBatch(ctx, buf.take()); err != nil {
					return err
				}
			}
		case <-buf.flushCh():
			if err := p.processBatch(ctx, buf.take()); err != nil {
				return err
			}
		}
	}
}

// Query analyzes one batch of traces and writes the results in the order
// the connector returned them.
func (p *Pipeline) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) error {
	raws, err := p.connector.Query(ctx, cfg, params)
	if err != nil {
		return fmt.Errorf("pipeline query: %w", err)
	}
	slog.Debug("query returned traces", "count", len(raws))
	return p.processBatch(ctx, raws)
}

func (p *Pipeline) processBatch(ctx context.Context, raws []model.RawTrace) error {
	if len(raws) == 0 {
		return nil
	}
	results, err := p.processor.ProcessBatch(ctx, raws)
	if err != nil {
		return fmt.Errorf("pipeline process batch: %w", err)
	}
	for _, r := range results {
		if err := p.emit(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// emit stamps a run id on the result, records it and hands it to the output.
func (p *Pipeline) emit(ctx context.Context, result model.TraceResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	p.analyzed.Add(1)
	if result.Err != nil {
		p.failed.Add(1)
		slog.Warn("trace analysis failed", "source", result.Source, "id", result.ID, "error", result.Err)
	} else {
		slog.Debug("trace analyzed", "source", result.Source, "id", result.ID, "tasks", len(result.Forest.Tasks))
	}
	if err := p.output.Write(ctx, result); err != nil {
		return fmt.Errorf("pipeline output: %w", err)
	}
	return nil
}

// Failed returns how many traces so far failed analysis.
func (p *Pipeline) Failed() int64 {
	return p.failed.Load()
}

// Close shuts down the output and reports totals.
func (p *Pipeline) Close() error {
	if n := p.analyzed.Load(); n > 0 {
		slog.Info("pipeline closed", "traces", n, "failed", p.failed.Load())
	}
	return p.output.Close()
}
