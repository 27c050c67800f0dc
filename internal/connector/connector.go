package connector

import (
	"context"
	"time"

	"github.com/crimson-sun/timber/internal/model"
)

// Connector defines the interface all trace source connectors must implement.
type Connector interface {
	// Stream watches the source and sends traces as they appear.
	Stream(ctx context.Context, cfg ConnectorConfig) (<-chan model.RawTrace, error)

	// Query fetches a batch of traces matching the given parameters.
	Query(ctx context.Context, cfg ConnectorConfig, params QueryParams) ([]model.RawTrace, error)
}

// ConnectorConfig holds provider-specific connection settings.
type ConnectorConfig struct {
	Provider string
	APIKey   string
	Endpoint string // directory for file, base URL for http
	Extra    map[string]string
}

// QueryParams selects the traces a Query returns.
type QueryParams struct {
	Sources []string // paths, globs or URLs; empty means everything under Endpoint
	Start   time.Time
	End     time.Time
	Limit   int
}

// InWindow reports whether t falls inside [Start, End). Zero bounds are open.
func (p QueryParams) InWindow(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && !t.Before(p.End) {
		return false
	}
	return true
}
