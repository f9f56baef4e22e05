// Package api talks to the DengueChat JSON:API backend.
package api

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

	"golang.org/x/time/rate"

	"github.com/denguechat/denguechat-admin/internal/platform/jsonapi"
)

const (
	mediaTypeJSONAPI = "application/vnd.api+json"
	maxErrorBody     = 1 << 20
)

// Observer records backend request outcomes.
type Observer interface {
	ObserveBackendRequest(method, endpoint string, status int, elapsed time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	Observer  Observer
	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
}

// Client performs authenticated JSON requests against the backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
}

// NewClient validates the base URL and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &Client{baseURL: base, httpClient: httpClient, limiter: limiter, observer: cfg.Observer}, nil
}

// Do sends a request and returns the decoded JSON:API document. A nil
// document is returned for empty bodies (204).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*jsonapi.Document, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("api: rate limit wait: %w", err)
		}
	}
	target := c.resolve(path, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", mediaTypeJSONAPI+", application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if lang := LanguageFromContext(ctx); lang != "" {
		req.Header.Set("Accept-Language", lang)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, 0, start)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(method, path, resp.StatusCode, start)

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseError(resp.StatusCode, raw)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return jsonapi.Decode(bytes.NewReader(raw))
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendRequest(method, Endpoint(path), status, time.Since(start))
}

// Endpoint reduces a request path to a low-cardinality label: numeric and
// uuid-like segments become ":id".
func Endpoint(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if seg == "" {
		return false
	}
	digits := 0
	for _, r := range seg {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits == len(seg) || (len(seg) == 36 && strings.Count(seg, "-") == 4)
}

// Page is a decoded collection plus the advertised total.
type Page[T any] struct {
	Items []T
	Total int
}

// List fetches a collection. When the backend does not report a total the
// number of returned items is used.
func List[T any](ctx context.Context, c *Client, path string, query url.Values) (Page[T], error) {
	doc, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return Page[T]{}, err
	}
	if doc == nil {
		return Page[T]{Items: []T{}}, nil
	}
	var items []T
	if err := doc.Unmarshal(&items); err != nil {
		return Page[T]{}, err
	}
	total := doc.Meta.Total()
	if total < 0 {
		total = len(items)
	}
	return Page[T]{Items: items, Total: total}, nil
}

// Get fetches a single resource.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	doc, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return out, err
	}
	if doc == nil {
		return out, ErrNotFound
	}
	if err := doc.Unmarshal(&out); err != nil {
		if errors.Is(err, jsonapi.ErrNoData) {
			return out, ErrNotFound
		}
		return out, err
	}
	return out, nil
}

// Create posts body to path and decodes the created resource.
func Create[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return write[T](ctx, c, http.MethodPost, path, body)
}

// Update patches the resource at path.
func Update[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return write[T](ctx, c, http.MethodPatch, path, body)
}

// Delete removes the resource at path.
func Delete(ctx context.Context, c *Client, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func write[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	doc, err := c.Do(ctx, method, path, nil, body)
	if err != nil {
		return out, err
	}
	if doc == nil {
		return out, nil
	}
	if err := doc.Unmarshal(&out); err != nil && !errors.Is(err, jsonapi.ErrNoData) {
		return out, err
	}
	return out, nil
}
