// Package backend is the REST client for the inventory backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const jsonContentType = "application/json"

// Observer receives one callback per backend round trip.
type Observer interface {
	ObserveBackendCall(method, endpoint, outcome string, elapsed time.Duration)
}

// Client wraps interactions with the inventory REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every round trip. Zero keeps the default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver records call outcomes, typically into Prometheus.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient constructs a new client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one JSON call. Body is JSON-encoded when non-nil. Header
// entries replace the defaults, including Content-Type.
type Request struct {
	Method   string
	Endpoint string
	Body     any
	Header   http.Header
}

// Do performs req and decodes a successful body into out. A 204 leaves out
// untouched and returns nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", req.Method, req.Endpoint, err)
		}
		body = bytes.NewReader(raw)
	}

	header := http.Header{}
	header.Set("Content-Type", jsonContentType)
	for key, values := range req.Header {
		header.Del(key)
		for _, v := range values {
			header.Add(key, v)
		}
	}

	resp, err := c.send(ctx, req.Method, req.Endpoint, body, header)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", req.Method, req.Endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint}, out)
}

func (c *Client) post(ctx context.Context, endpoint string, data, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Body: data}, out)
}

func (c *Client) patch(ctx context.Context, endpoint string, data, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Endpoint: endpoint, Body: data}, out)
}

func (c *Client) del(ctx context.Context, endpoint string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: endpoint}, nil)
}

// send performs the raw round trip. Only transport failures are errors here.
func (c *Client) send(ctx context.Context, method, endpoint string, body io.Reader, header http.Header) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, ErrNoBaseURL
	}
	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("backend: build %s %s: %w", method, endpoint, err)
	}
	for key, values := range header {
		req.Header[key] = values
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	route := routeTemplate(endpoint)
	if err != nil {
		c.observe(method, route, "transport_error", elapsed)
		c.logger.Warn("backend request failed", slog.String("method", method), slog.String("endpoint", endpoint), slog.Any("error", err))
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	c.observe(method, route, outcomeFor(resp.StatusCode), elapsed)
	c.logger.Debug("backend request", slog.String("method", method), slog.String("endpoint", endpoint), slog.Int("status", resp.StatusCode), slog.Duration("elapsed", elapsed))
	return resp, nil
}

func (c *Client) observe(method, route, outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(method, route, outcome, elapsed)
	}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: statusFallback(resp.StatusCode)}
	var payload errorBody
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return apiErr
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil && detail != "" {
		apiErr.Message = detail
	}
	return apiErr
}

func outcomeFor(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "ok"
	}
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// routeTemplate strips query strings and ids so metrics labels stay bounded.
func routeTemplate(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	for numericSegment.MatchString(endpoint) {
		endpoint = numericSegment.ReplaceAllString(endpoint, "/{id}$1")
	}
	return endpoint
}
