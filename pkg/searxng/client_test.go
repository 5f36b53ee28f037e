package searxng

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Solar in Miami official website", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "general", q.Get("categories"))
		assert.Equal(t, "en-US", q.Get("language"))
		assert.Empty(t, q.Get("pageno"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")

		w.Write([]byte(`{"query":"x","results":[
			{"title":"Sunny Solar","url":"https://sunnysolar.com","content":"Installers","score":1.5}
		]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	resp, err := c.Search(context.Background(), "Solar in Miami official website", WithRegion("us-en"))
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://sunnysolar.com", resp.Results[0].URL)
	assert.InDelta(t, 1.5, resp.Results[0].Score, 0.001)
}

func TestSearch_PageAndCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("pageno"))
		assert.Equal(t, "news", r.URL.Query().Get("categories"))
		w.Write([]byte(`{"results":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Search(context.Background(), "q", WithPage(2), WithCategory("news"))
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down")) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Search(context.Background(), "q")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Temporary())
	assert.Contains(t, err.Error(), "slow down")
}

func TestSearch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>")) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestRegionToLanguage(t *testing.T) {
	assert.Equal(t, "en-US", regionToLanguage("us-en"))
	assert.Equal(t, "de-DE", regionToLanguage("de-de"))
	assert.Empty(t, regionToLanguage("wt"))
	assert.Empty(t, regionToLanguage(""))
}

func TestWithTimeout(t *testing.T) {
	c := NewClient("http://x", WithTimeout(3*time.Second)).(*httpClient)
	assert.Equal(t, 3*time.Second, c.http.Timeout)
}
