// Package remote implements the "http" connector: traces fetched from URLs
// or listed by a paginated trace index.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/crimson-sun/timber/internal/connector"
	"github.com/crimson-sun/timber/internal/connector/httpclient"
	"github.com/crimson-sun/timber/internal/model"
)

const (
	defaultIndexPath    = "/traces"
	defaultPollInterval = 30 * time.Second
)

func init() {
	connector.Register("http", func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements the connector.Connector interface over HTTP.
type Connector struct{}

// Response types (unexported).

type indexResponse struct {
	Data []traceRef `json:"data"`
	Meta meta       `json:"meta"`
}

type traceRef struct {
	ID        string `json:"id"`
	URL       string `json:"url"`        // absolute, or relative to the endpoint
	CreatedAt string `json:"created_at"` // RFC 3339
}

type meta struct {
	NextToken string `json:"next_token"`
}

func (r traceRef) path() string {
	if r.URL != "" {
		return r.URL
	}
	return defaultIndexPath + "/" + url.PathEscape(r.ID)
}

// Query fetches params.Sources directly when given. Otherwise it walks the
// trace index at Extra["index_path"] (default /traces) and fetches every
// listed trace created inside the query window.
func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.RawTrace, error) {
	if cfg.Endpoint == "" && len(params.Sources) == 0 {
		return nil, errors.New("http connector: no sources and no endpoint")
	}
	client := httpclient.New(cfg.Endpoint, cfg.APIKey)

	var results []model.RawTrace
	if len(params.Sources) > 0 {
		for _, src := range params.Sources {
			tr, err := fetch(ctx, client, cfg.Endpoint, src)
			if err != nil {
				return nil, fmt.Errorf("http connector: %w", err)
			}
			results = append(results, tr)
			if params.Limit > 0 && len(results) >= params.Limit {
				break
			}
		}
		return results, nil
	}

	cursor := ""
	for {
		resp, err := listPage(ctx, client, indexPath(cfg), cursor)
		if err != nil {
			return nil, fmt.Errorf("http connector: %w", err)
		}

		for _, ref := range resp.Data {
			if created, err := time.Parse(time.RFC3339Nano, ref.CreatedAt); err == nil && !params.InWindow(created) {
				continue
			}
			tr, err := fetch(ctx, client, cfg.Endpoint, ref.path())
			if err != nil {
				return nil, fmt.Errorf("http connector: %w", err)
			}
			results = append(results, tr)
			if params.Limit > 0 && len(results) >= params.Limit {
				return results, nil
			}
		}

		cursor = resp.Meta.NextToken
		if cursor == "" {
			break
		}
	}
	return results, nil
}

// Stream polls the trace index every Extra["poll_interval"] (default 30s)
// and emits each trace the first time it is listed.
func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.RawTrace, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("http connector: missing endpoint")
	}
	client := httpclient.New(cfg.Endpoint, cfg.APIKey)

	pollInterval := defaultPollInterval
	if raw := cfg.Extra["poll_interval"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			pollInterval = d
		}
	}

	ch := make(chan model.RawTrace, 16)
	go func() {
		defer close(ch)
		p := &poller{client: client, endpoint: cfg.Endpoint, path: indexPath(cfg), seen: make(map[string]bool)}
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		p.poll(ctx, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx, ch)
			}
		}
	}()

	return ch, nil
}

type poller struct {
	client   *httpclient.Client
	endpoint string
	path     string
	cursor   string
	seen     map[string]bool
}

func (p *poller) poll(ctx context.Context, ch chan<- model.RawTrace) {
	resp, err := listPage(ctx, p.client, p.path, p.cursor)
	if err != nil {
		slog.Warn("poll error", "connector", "http", "error", err)
		return
	}

	for _, ref := range resp.Data {
		key := ref.ID
		if key == "" {
			key = ref.URL
		}
		if p.seen[key] {
			continue
		}
		tr, err := fetch(ctx, p.client, p.endpoint, ref.path())
		if err != nil {
			slog.Warn("fetch error", "connector", "http", "trace", key, "error", err)
			continue
		}
		p.seen[key] = true
		select {
		case ch <- tr:
		case <-ctx.Done():
			return
		}
	}

	if resp.Meta.NextToken != "" {
		p.cursor = resp.Meta.NextToken
	}
}

func listPage(ctx context.Context, client *httpclient.Client, path, cursor string) (indexResponse, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("next_token", cursor)
	}
	var resp indexResponse
	err := client.GetJSON(ctx, path, q, &resp)
	return resp, err
}

func fetch(ctx context.Context, client *httpclient.Client, endpoint, path string) (model.RawTrace, error) {
	body, err := client.GetBytes(ctx, path, nil)
	if err != nil {
		return model.RawTrace{}, fmt.Errorf("%s: %w", path, err)
	}
	events, err := connector.Decode(bytes.NewReader(body))
	if err != nil {
		return model.RawTrace{}, fmt.Errorf("%s: %w", path, err)
	}
	return model.RawTrace{Source: sourceName(endpoint, path), Events: events}, nil
}

func sourceName(endpoint, path string) string {
	if strings.Contains(path, "://") || endpoint == "" {
		return path
	}
	return strings.TrimSuffix(endpoint, "/") + "/" + strings.TrimPrefix(path, "/")
}

func indexPath(cfg connector.ConnectorConfig) string {
	if p := cfg.Extra["index_path"]; p != "" {
		return p
	}
	return defaultIndexPath
}
