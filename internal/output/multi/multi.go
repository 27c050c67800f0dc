package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/timber/internal/model"
	"github.com/crimson-sun/timber/internal/output"
)

// Multi fans a result out to several outputs in order. A failing output
// does not keep the result from the ones after it.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers result to every output and joins their errors.
func (m *Multi) Write(ctx context.Context, result model.TraceResult) error {
	var errs []error
	for i, o := range m.outputs {
		if err := o.Write(ctx, result); err != nil {
			errs = append(errs, fmt.Errorf("output %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every output and joins their errors.
func (m *Multi) Close() error {
	var errs []error
	for i, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, fmt.Errorf("output %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
