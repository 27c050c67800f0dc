package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRetryWait    = 100 * time.Millisecond
	defaultRetryMaxWait = 2 * time.Second
	maxRetries          = 3
	maxErrorBody        = 512
)

// Client is an HTTP client with Bearer auth, base URL, and retry logic.
type Client struct {
	rc *resty.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.rc.SetTimeout(d)
	}
}

// WithRetryWait sets the backoff bounds between retries.
func WithRetryWait(wait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.rc.SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	}
}

// WithHeader sets a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.rc.SetHeader(key, value)
	}
}

// New creates a Client with Bearer auth and a base URL. Requests to
// absolute URLs ignore the base URL. Retries up to 3 times on network
// errors, 408, 429 (honoring Retry-After) and 5xx.
func New(baseURL, token string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetDisableWarn(true).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		SetRetryAfter(retryAfter).
		AddRetryCondition(retryCondition)
	if token != "" {
		rc.SetAuthToken(token)
	}

	c := &Client{rc: rc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBytes sends a GET request and returns the response body.
// Returns *APIError for non-2xx responses.
func (c *Client) GetBytes(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req := c.rc.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return resp.Body(), nil
}

// GetJSON sends a GET request and unmarshals the JSON response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	body, err := c.GetBytes(ctx, path, query)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

// PostJSON sends body as a JSON POST request.
func (c *Client) PostJSON(ctx context.Context, path string, body any) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) *APIError {
	body := resp.Body()
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{StatusCode: resp.StatusCode(), Body: string(body)}
}

// retryCondition determines if a request should be retried.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// retryAfter honors a Retry-After header in seconds on 429 responses.
// Zero falls back to exponential backoff.
func retryAfter(_ *resty.Client, r *resty.Response) (time.Duration, error) {
	if r == nil || r.StatusCode() != http.StatusTooManyRequests {
		return 0, nil
	}
	if secs, err := strconv.Atoi(r.Header().Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, nil
}
