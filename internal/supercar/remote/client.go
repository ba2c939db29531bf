// Package remote reads and replaces the JSON configuration resources served by
// the vehicle controller. It knows nothing about forms.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloupeer.io/supercar/internal/pkg/metrics"
	"cloupeer.io/supercar/pkg/log"
)

const maxBodySize = 1 << 20

// Record is one configuration resource: a flat JSON object.
type Record = map[string]any

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// Client talks to the device API below a fixed base URL. It holds no state
// between calls and is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient returns a Client for baseURL, e.g. "http://10.0.0.120/api/".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: missing host", baseURL)
	}

	c := &Client{
		base: u,
		http: &http.Client{Timeout: 5 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// URL returns the absolute URL of the resource at path.
func (c *Client) URL(path string) string {
	return c.base.JoinPath(strings.TrimPrefix(path, "/")).String()
}

// FetchResource retrieves the resource at path.
func (c *Client) FetchResource(ctx context.Context, path string) (Record, error) {
	start := time.Now()
	record, err := c.fetch(ctx, path)
	c.observe(OpFetch, path, start, err)
	return record, err
}

// ReplaceResource replaces the resource at path with record.
func (c *Client) ReplaceResource(ctx context.Context, path string, record Record) error {
	start := time.Now()
	err := c.replace(ctx, path, record)
	c.observe(OpReplace, path, start, err)
	return err
}

func (c *Client) fetch(ctx context.Context, path string) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return nil, &Error{Op: OpFetch, Kind: ErrTransportFailure, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(OpFetch, path, req)
	if err != nil {
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, &Error{Op: OpFetch, Kind: ErrDecodeFailure, Path: path, Err: err}
	}
	if record == nil {
		return nil, &Error{Op: OpFetch, Kind: ErrDecodeFailure, Path: path, Err: errors.New("response is not a JSON object")}
	}
	return record, nil
}

func (c *Client) replace(ctx context.Context, path string, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return &Error{Op: OpReplace, Kind: ErrTransportFailure, Path: path, Err: fmt.Errorf("failed to marshal record: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.URL(path), bytes.NewReader(payload))
	if err != nil {
		return &Error{Op: OpReplace, Kind: ErrTransportFailure, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(OpReplace, path, req)
	return err
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(op Op, path string, req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrTransportFailure, Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrTransportFailure, Path: path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Op: op, Kind: ErrRemoteRejected, Path: path, StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

func (c *Client) observe(op Op, path string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.RemoteRequestsTotal.WithLabelValues(string(op), outcome(err)).Inc()
	metrics.RemoteRequestLatency.WithLabelValues(string(op)).Observe(elapsed.Seconds())

	if err != nil {
		log.Debug("Device request failed", "op", op, "path", path, "duration", elapsed, "error", err)
		return
	}
	log.Debug("Device request succeeded", "op", op, "path", path, "duration", elapsed)
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}
