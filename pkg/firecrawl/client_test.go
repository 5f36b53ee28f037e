package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrape_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://sunnysolar.com", req.URL)
		assert.Equal(t, []string{"markdown", "links"}, req.Formats)

		w.Write([]byte(`{
			"success": true,
			"data": {
				"markdown": "# Sunny Solar\n[About](/about)",
				"links": ["https://sunnysolar.com/about", "https://x.com/sunny"],
				"metadata": {"title": "Sunny Solar", "sourceURL": "https://sunnysolar.com", "statusCode": 200}
			}
		}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("fc-key", WithBaseURL(srv.URL))
	resp, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://sunnysolar.com"})
	require.NoError(t, err)
	assert.Contains(t, resp.Data.Markdown, "Sunny Solar")
	assert.Len(t, resp.Data.Links, 2)
	assert.Equal(t, "Sunny Solar", resp.Data.Metadata.Title)
	assert.Equal(t, 200, resp.Data.Metadata.StatusCode)
}

func TestScrape_KeepsExplicitFormats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"html"}, req.Formats)
		require.NotNil(t, req.OnlyMainContent)
		assert.False(t, *req.OnlyMainContent)
		w.Write([]byte(`{"success":true,"data":{"html":"<p>x</p>"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	onlyMain := false
	resp, err := NewClient("k", WithBaseURL(srv.URL)).Scrape(context.Background(), ScrapeRequest{
		URL: "https://a.com", Formats: []string{"html"}, OnlyMainContent: &onlyMain,
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", resp.Data.HTML)
}

func TestScrape_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"credits exhausted"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Scrape(context.Background(), ScrapeRequest{URL: "https://a.com"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.False(t, apiErr.Temporary())
	assert.Contains(t, apiErr.Error(), "credits exhausted")
}

func TestScrape_RateLimitedIsTemporary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Scrape(context.Background(), ScrapeRequest{URL: "https://a.com"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Temporary())
}

func TestScrape_UnsuccessfulBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"blocked"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Scrape(context.Background(), ScrapeRequest{URL: "https://a.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestScrape_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`nope`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Scrape(context.Background(), ScrapeRequest{URL: "https://a.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
