package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"github.com/capralifecycle/cals/internal/respcache"
)

const (
	apiVersion     = "2022-11-28"
	userAgent      = "cals-cli"
	defaultBaseURL = "https://api.github.com"
	perPage        = 100
)

// Config holds what NewClient needs.
type Config struct {
	// BaseURL defaults to https://api.github.com. Must use HTTPS.
	BaseURL string
	// Token is a personal access token. Required.
	Token string
	// HTTPClient supplies the base transport. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Cache defaults to an in-memory cache.
	Cache  Cache
	Logger *slog.Logger
}

// Client is a GitHub REST API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	rateLimit  *rateLimitTracker
	logger     *slog.Logger
	requests   atomic.Int64
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}

	if cfg.Token == "" {
		return nil, errors.New("github: no token configured")
	}

	base := cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	cache := cfg.Cache
	if cache == nil {
		cache = NewMemoryCache()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
				Base:   transport,
			},
			Timeout: base.Timeout,
		},
		cache:     cache,
		rateLimit: newRateLimitTracker(),
		logger:    logger,
	}, nil
}

// RequestCount returns the number of HTTP requests sent so far, including
// conditional requests answered with 304.
func (c *Client) RequestCount() int64 {
	return c.requests.Load()
}

// RateLimitRemaining returns the remaining quota from the latest response.
// The boolean is false until a response carried rate limit headers.
func (c *Client) RateLimitRemaining() (int, bool) {
	return c.rateLimit.snapshot()
}

// get fetches url and returns the body and the Link header. Cached
// responses are revalidated with If-None-Match; a rate-limited answer is
// retried once after the advertised backoff.
func (c *Client) get(ctx context.Context, url string) ([]byte, string, error) {
	cached, haveCached, err := c.cache.Get(ctx, url)
	if err != nil {
		c.logger.Warn("response cache read failed",
			slog.String("url", url), slog.String("error", err.Error()))

		haveCached = false
	}

	for attempt := 0; ; attempt++ {
		if err := c.rateLimit.wait(ctx); err != nil {
			return nil, "", fmt.Errorf("github: waiting for rate limit reset: %w", err)
		}

		etag := ""
		if haveCached {
			etag = cached.ETag
		}

		resp, err := c.doOnce(ctx, url, etag)
		if err != nil {
			return nil, "", err
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			return nil, "", fmt.Errorf("github: reading response body: %w", readErr)
		}

		c.rateLimit.update(resp.Header)

		switch {
		case resp.StatusCode == http.StatusNotModified && haveCached:
			c.logger.Debug("cache revalidated", slog.String("url", url))
			return cached.Body, cached.Link, nil

		case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
			link := resp.Header.Get("Link")
			c.store(ctx, url, resp.Header.Get("ETag"), body, link)

			return body, link, nil
		}

		apiErr := parseAPIError(resp.StatusCode, body)
		if attempt == 0 && errors.Is(apiErr, ErrRateLimited) {
			if backoff := c.rateLimit.retryAfter(resp.Header); backoff > 0 {
				c.logger.Warn("rate limited, backing off",
					slog.String("url", url), slog.Duration("backoff", backoff))

				if err := c.rateLimit.sleepFunc(ctx, backoff); err != nil {
					return nil, "", fmt.Errorf("github: request canceled: %w", err)
				}

				continue
			}
		}

		return nil, "", apiErr
	}
}

func (c *Client) doOnce(ctx context.Context, url, etag string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)

	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	c.requests.Add(1)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: GET %s: %w", url, err)
	}

	c.logger.Debug("github request",
		slog.String("url", url), slog.Int("status", resp.StatusCode))

	return resp, nil
}

func (c *Client) store(ctx context.Context, url, etag string, body []byte, link string) {
	if etag == "" {
		return
	}

	err := c.cache.Put(ctx, url, respcache.Entry{ETag: etag, Body: body, Link: link, FetchedAt: time.Now()})
	if err != nil {
		c.logger.Warn("response cache write failed",
			slog.String("url", url), slog.String("error", err.Error()))
	}
}

// list fetches every page of a list endpoint.
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	next := fmt.Sprintf("%s%s%sper_page=%d", c.baseURL, path, sep, perPage)

	var all []T

	for next != "" {
		body, link, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}

		var page []T
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("github: decoding %s: %w", path, err)
		}

		all = append(all, page...)
		next = parseLinkNext(link)
	}

	return all, nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var wire struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}

	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		apiErr.Message = wire.Message
		apiErr.DocumentationURL = wire.DocumentationURL
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	apiErr.Err = classifyStatus(status, apiErr.Message)

	return apiErr
}

// parseLinkNext extracts the rel="next" URL from an RFC 5988 Link header.
//
// Format: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func parseLinkNext(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.SplitN(strings.TrimSpace(part), ";", 2)
		if len(segments) != 2 || !strings.Contains(segments[1], `rel="next"`) {
			continue
		}

		u := strings.TrimSpace(segments[0])
		if strings.HasPrefix(u, "<") && strings.HasSuffix(u, ">") {
			return u[1 : len(u)-1]
		}
	}

	return ""
}
