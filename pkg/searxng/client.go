// Package searxng provides a client for the JSON API of a SearXNG
// metasearch instance.
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client queries a SearXNG instance.
type Client interface {
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// SearchResponse is the JSON body of GET /search?format=json.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// SearchResult is a single result.
type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"publishedDate"`
	Score         float64 `json:"score"`
}

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("searxng: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	category string
	language string
	page     int
}

// WithCategory sets the SearXNG category (default "general").
func WithCategory(c string) SearchOption {
	return func(o *searchOpts) { o.category = c }
}

// WithRegion maps a region code such as "us-en" to a SearXNG language
// ("en-US").
func WithRegion(region string) SearchOption {
	return func(o *searchOpts) { o.language = regionToLanguage(region) }
}

// WithPage requests a 1-based result page.
func WithPage(n int) SearchOption {
	return func(o *searchOpts) { o.page = n }
}

func regionToLanguage(region string) string {
	country, lang, ok := strings.Cut(region, "-")
	if !ok || country == "" || lang == "" {
		return ""
	}
	return strings.ToLower(lang) + "-" + strings.ToUpper(country)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	so := &searchOpts{category: "general"}
	for _, opt := range opts {
		opt(so)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("categories", so.category)
	if so.language != "" {
		q.Set("language", so.language)
	}
	if so.page > 1 {
		q.Set("pageno", strconv.Itoa(so.page))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "searxng: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "searxng: decode response")
	}
	return &out, nil
}
