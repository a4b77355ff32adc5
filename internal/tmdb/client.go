package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/marquee/internal/catalog"
	"github.com/vmunix/marquee/internal/metrics"
	"github.com/vmunix/marquee/internal/observability"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultTimeout  = 10 * time.Second
	defaultLanguage = "en-US"
)

// ErrMissingToken is returned by NewClient when no access token is given.
var ErrMissingToken = errors.New("tmdb access token is required")

// Client is a TMDB API client authenticated with a v4 read access token.
type Client struct {
	token      string
	baseURL    string
	language   string
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLanguage sets the language TMDB localizes titles into.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics enables Prometheus recording of upstream calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new TMDB client.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	c := &Client{
		token:    token,
		baseURL:  defaultBaseURL,
		language: defaultLanguage,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SearchByTitle returns TMDB's first page of matches for the title, in
// TMDB's relevance order.
func (c *Client) SearchByTitle(ctx context.Context, query string) ([]catalog.Entry, error) {
	params := url.Values{}
	params.Set("query", query)
	return c.list(ctx, metrics.OpSearch, "/search/movie", params)
}

// RelatedTo returns TMDB's first page of movies similar to tmdbID.
func (c *Client) RelatedTo(ctx context.Context, tmdbID int64) ([]catalog.Entry, error) {
	return c.list(ctx, metrics.OpSimilar, "/movie/"+strconv.FormatInt(tmdbID, 10)+"/similar", url.Values{})
}

func (c *Client) list(ctx context.Context, op, path string, params url.Values) ([]catalog.Entry, error) {
	ctx, span := observability.StartClientSpan(ctx, "tmdb."+op, observability.AttrUpstreamOp.String(op))
	defer span.End()

	params.Set("include_adult", "false")
	params.Set("language", c.language)
	params.Set("page", "1")

	start := time.Now()
	var body page
	status, err := c.get(ctx, path, params, &body)
	c.metrics.UpstreamRequest(op, status, time.Since(start))
	if status != 0 {
		span.SetAttributes(observability.AttrStatusCode.Int(status))
	}
	if err != nil {
		uerr := &catalog.UpstreamError{Op: op, StatusCode: status, Err: err}
		observability.SetSpanError(span, uerr)
		c.log.Warn("tmdb request failed", "op", op, "status", status, "error", err)
		return nil, uerr
	}
	observability.SetSpanOK(span)

	entries := make([]catalog.Entry, 0, len(body.Results))
	for i := range body.Results {
		entries = append(entries, body.Results[i].Entry())
	}
	c.log.Debug("tmdb request", "op", op, "results", len(entries), "duration_ms", time.Since(start).Milliseconds())
	return entries, nil
}

// get performs the request and decodes a 2xx JSON body into out. The
// returned status is 0 when no response was received.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (int, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("TMDB API error: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
