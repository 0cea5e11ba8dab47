// Package catalog provides a client for the movie catalog HTTP API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vmunix/reelview/internal/movie"
)

const defaultTimeout = 10 * time.Second
const defaultCacheTTL = 5 * time.Minute

// maxBodySize bounds the decoded response body.
const maxBodySize = 1 << 20

// Client fetches movie records from GET {baseURL}/api/movies/{id}.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache
	group      singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64 // bumped by Invalidate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithCacheTTL sets the cache TTL. A zero TTL disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = newCache(ttl)
	}
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		cache: newCache(defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the catalog root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// GetMovie fetches a movie record by id.
// Concurrent calls for the same id share one request.
func (c *Client) GetMovie(ctx context.Context, id string) (*movie.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	if c.cache != nil {
		if rec, ok := c.cache.get(id); ok {
			return rec, nil
		}
	}

	// The shared fetch outlives a canceled caller so its result still warms the cache.
	ch := c.group.DoChan(id, func() (any, error) {
		gen := c.generation(id)
		rec, err := c.fetch(context.WithoutCancel(ctx), id)
		if err == nil {
			c.store(id, gen, rec)
		}
		return rec, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*movie.Record), nil
	}
}

// Invalidate drops a cached record. A fetch already in flight for id is
// detached: later callers start a new request and its result is not cached.
func (c *Client) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens == nil {
		c.gens = make(map[string]uint64)
	}
	c.gens[id]++
	c.group.Forget(id)
	if c.cache != nil {
		c.cache.delete(id)
	}
}

func (c *Client) generation(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[id]
}

// store caches rec unless id was invalidated since gen was read.
func (c *Client) store(id string, gen uint64, rec *movie.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache == nil || c.gens[id] != gen {
		return
	}
	c.cache.set(id, rec)
}

func (c *Client) fetch(ctx context.Context, id string) (*movie.Record, error) {
	// Build request
	endpoint := c.baseURL + "/api/movies/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// Execute
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Handle errors
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeRecord(body)
}

func decodeRecord(body []byte) (*movie.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, ErrNotFound
	}

	var rec *movie.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !rec.Usable() {
		return nil, ErrNotFound
	}
	return rec, nil
}
