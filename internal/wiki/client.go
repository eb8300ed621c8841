// Package wiki is the link source: it fetches Wikipedia articles and extracts
// the titles they link to.
package wiki

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/spachava753/wikibench/internal/metrics"
	"github.com/spachava753/wikibench/internal/models"
)

const (
	// DefaultBaseURL is English Wikipedia.
	DefaultBaseURL = "https://en.wikipedia.org"
	// DefaultUserAgent identifies the benchmark to Wikipedia.
	DefaultUserAgent = "WikiBench/1.0 (Educational Research Tool)"
	// DefaultTimeout bounds each request.
	DefaultTimeout = 30 * time.Second

	randomPath = "/wiki/Special:Random"

	// maxPageSize caps how much of an article body is read.
	maxPageSize = 16 * 1024 * 1024
)

// Client fetches pages from a MediaWiki site.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLimiter paces every request through l. A limiter shared between clients
// paces them globally.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewLimiter returns a limiter allowing rps requests per second, or nil when rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// NewClient creates a client for the site at baseURL. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{},
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the site root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// URLForTitle derives the canonical article URL for title.
func (c *Client) URLForTitle(title string) string {
	return ArticleURL(c.baseURL.String(), title)
}

// PageLinks returns the article links found in the body of the page at pageURL,
// in document order with one entry per title. A page whose body has no article
// links yields an empty slice and no error.
func (c *Client) PageLinks(ctx context.Context, pageURL string) ([]models.Page, error) {
	start := time.Now()
	links, err := c.pageLinks(ctx, pageURL)
	c.metrics.ObserveFetch("links", time.Since(start), err)
	if err != nil {
		c.logger.Debug("page links failed", "url", pageURL, "error", err)
		return nil, err
	}
	c.logger.Debug("page links", "url", pageURL, "count", len(links))
	return links, nil
}

func (c *Client) pageLinks(ctx context.Context, pageURL string) ([]models.Page, error) {
	target, err := c.resolve(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	body, final, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}

	links, err := extractLinks(final, bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: final.String(), Err: err}
	}
	return links, nil
}

// RandomPage asks the site for a random article and returns where it landed.
func (c *Client) RandomPage(ctx context.Context) (models.Page, error) {
	start := time.Now()
	page, err := c.randomPage(ctx)
	c.metrics.ObserveFetch("random", time.Since(start), err)
	if err != nil {
		return models.Page{}, fmt.Errorf("getting random page: %w", err)
	}
	c.logger.Debug("random page", "title", page.Title, "url", page.URL)
	return page, nil
}

func (c *Client) randomPage(ctx context.Context) (models.Page, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: randomPath})
	_, final, err := c.get(ctx, target)
	if err != nil {
		return models.Page{}, err
	}

	title := TitleFromURL(final.String())
	if title == "" || final.Path == randomPath {
		return models.Page{}, &ParseError{URL: final.String(), Err: errors.New("random page did not redirect to an article")}
	}
	return models.Page{Title: title, URL: final.String()}, nil
}

func (c *Client) resolve(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return c.baseURL.ResolveReference(u), nil
}

// get performs a paced GET and returns the body and the final URL after redirects.
func (c *Client) get(ctx context.Context, target *url.URL) ([]byte, *url.URL, error) {
	raw := target.String()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, &FetchError{URL: raw, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, &FetchError{URL: raw, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &FetchError{URL: raw, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &FetchError{URL: raw, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return nil, nil, &FetchError{URL: raw, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxPageSize {
		return nil, nil, &FetchError{URL: raw, Err: fmt.Errorf("content too large (exceeds %d bytes)", maxPageSize)}
	}

	return body, resp.Request.URL, nil
}
