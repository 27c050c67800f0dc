package output

import (
	"context"

	"github.com/crimson-sun/timber/internal/model"
)

// Output defines the interface for analysis result destinations.
type Output interface {
	Write(ctx context.Context, result model.TraceResult) error
	Close() error
}
