package stdout

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/crimson-sun/timber/internal/engine/compactor"
	"github.com/crimson-sun/timber/internal/model"
	"github.com/crimson-sun/timber/internal/output"
)

// Format selects how results are rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

var (
	heading = color.New(color.FgWhite, color.Bold).SprintFunc()
	failure = color.New(color.FgRed, color.Bold).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	dim     = color.New(color.FgHiBlack).SprintFunc()
)

// Option configures a stdout Output.
type Option func(*Output)

// WithWriter redirects output away from os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.w = w }
}

// WithFormat selects JSON (default) or a colored text summary.
func WithFormat(f Format) Option {
	return func(o *Output) { o.format = f }
}

// WithLabels sets how group ids are displayed in text mode.
func WithLabels(label func(model.TaskGroup) string) Option {
	return func(o *Output) { o.label = label }
}

// Output writes results to stdout.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	enc       *json.Encoder
	format    Format
	verbosity compactor.Verbosity
	pretty    bool
	label     func(model.TaskGroup) string
}

// New creates a new stdout Output with verbosity-aware task trimming
// and optional pretty-printed JSON.
func New(verbosity compactor.Verbosity, pretty bool, opts ...Option) *Output {
	o := &Output{
		w:         os.Stdout,
		format:    FormatJSON,
		verbosity: verbosity,
		pretty:    pretty,
		label:     func(g model.TaskGroup) string { return string(g) },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.enc = json.NewEncoder(o.w)
	if pretty {
		o.enc.SetIndent("", "  ")
	}
	return o
}

func (o *Output) Write(_ context.Context, result model.TraceResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == FormatText {
		if err := o.writeText(result); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
		return nil
	}
	if err := o.enc.Encode(output.FormatResult(result, o.verbosity)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}

func (o *Output) writeText(result model.TraceResult) error {
	if result.Err != nil {
		_, err := fmt.Fprintf(o.w, "%s %s\n  %s\n", failure("FAIL"), heading(result.Source), result.Err)
		return err
	}

	s := compactor.New(o.verbosity).Summarize(result.Forest)
	fmt.Fprintf(o.w, "%s %s\n", heading("TRACE"), heading(result.Source))
	fmt.Fprintf(o.w, "  main thread %d/%d  %d tasks  %d top-level  %.1f ms busy\n",
		result.MainThread.PID, result.MainThread.TID, s.Tasks, s.Roots, s.MainThreadTime)
	if s.Unbounded > 0 {
		fmt.Fprintf(o.w, "  %s\n", warning(fmt.Sprintf("%d task(s) never ended", s.Unbounded)))
	}
	if s.Longest != "" {
		fmt.Fprintf(o.w, "  longest %s %.1f ms\n", s.Longest, s.LongestTime)
	}

	groups := make([]model.TaskGroup, 0, len(s.SelfTime))
	for g := range s.SelfTime {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b model.TaskGroup) int {
		if c := cmp.Compare(s.SelfTime[b], s.SelfTime[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	for _, g := range groups {
		fmt.Fprintf(o.w, "  %-32s %10.1f ms\n", o.label(g), s.SelfTime[g])
	}
	_, err := fmt.Fprintf(o.w, "  %s\n", dim(fmt.Sprintf("%d attributed URL(s)", s.URLs)))
	return err
}
