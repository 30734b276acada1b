// Package fetch provides the HTTP plumbing shared by all source fetchers:
// a client with DNS caching, retry with exponential backoff, per-host
// circuit breaking, response caching, and the post-fetch archive pipeline
// that turns downloaded tarballs into parsed manifests.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"

	"github.com/pingraph/pingraph/pkg/cache"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultUserAgent  = "pingraph/1.0"
	defaultMaxRetries = 3
)

// Client performs HTTP fetches against registries, VCS APIs, and archive
// hosts. Metadata responses are cached; downloads are not.
type Client struct {
	http       *http.Client
	breakers   *BreakerSet
	cache      cache.Cache
	cacheTTL   time.Duration
	refresh    bool
	userAgent  string
	maxRetries uint64
	authFn     func(url string) (header, value string)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client. Mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCache enables response caching for GetJSON with the given TTL.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) { c.cache, c.cacheTTL = store, ttl }
}

// WithRefresh bypasses the cache for reads; fresh responses still get stored.
func WithRefresh(refresh bool) Option {
	return func(c *Client) { c.refresh = refresh }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxRetries sets how many times transient failures are retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithAuthFunc sets a function returning an auth header for a given URL.
// Return empty strings to send the request unauthenticated.
func WithAuthFunc(fn func(url string) (header, value string)) Option {
	return func(c *Client) { c.authFn = fn }
}

// NewClient creates a Client with DNS-cached dialing and sane transport
// limits.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       newHTTPClient(),
		breakers:   NewBreakerSet(),
		cache:      cache.NewNullCache(),
		userAgent:  defaultUserAgent,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient() *http.Client {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}

	return &http.Client{
		Timeout: defaultTimeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
				}
				return nil, fmt.Errorf("no resolved address for %s is dialable", host)
			},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// GetJSON fetches url and decodes the JSON response into v. Responses are
// served from and stored to the cache under the URL as key.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	if !c.refresh {
		if data, ok, _ := c.cache.Get(ctx, url); ok {
			return json.Unmarshal(data, v)
		}
	}
	data, err := c.GetBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	_ = c.cache.Set(ctx, url, data, c.cacheTTL)
	return nil
}

// GetBytes fetches url with retry and circuit breaking and returns the raw
// response body. Not cached; callers own larger payloads like tarballs.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		notFound error
	)
	err := c.breakers.Do(url, func() error {
		err := c.retryTransient(ctx, func() error {
			data, err := c.once(ctx, url)
			body = data
			return err
		})
		// Not-found is a definitive upstream answer, not a host failure;
		// surface it without counting against the breaker.
		if errors.Is(err, ErrNotFound) {
			notFound = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if notFound != nil {
		return nil, notFound
	}
	return body, nil
}

func (c *Client) retryTransient(ctx context.Context, fn func() error) error {
	if c.maxRetries == 0 {
		return fn()
	}
	op := func() error {
		err := fn()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrRateLimited), errors.Is(err, ErrUpstreamDown):
			return err
		default:
			return backoff.Permanent(err)
		}
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	return backoff.Retry(op, bo)
}

func (c *Client) once(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	if c.authFn != nil {
		if name, value := c.authFn(url); name != "" && value != "" {
			req.Header.Set(name, value)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamDown, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamDown, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
}

// Breakers exposes circuit breaker states for diagnostics.
func (c *Client) Breakers() *BreakerSet { return c.breakers }
