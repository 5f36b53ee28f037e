package scrape

import (
	"context"
	"time"

	"github.com/sells-group/outreach-cli/pkg/firecrawl"
)

// FirecrawlAdapter wraps a Firecrawl client as a Scraper.
type FirecrawlAdapter struct {
	client  firecrawl.Client
	timeout time.Duration
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
// timeout is forwarded as Firecrawl's server-side page timeout; zero keeps
// the API default.
func NewFirecrawlAdapter(client firecrawl.Client, timeout time.Duration) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client, timeout: timeout}
}

// Name implements Scraper.
func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports returns true; Firecrawl renders JavaScript and can attempt any URL.
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches a single URL via Firecrawl's scrape API.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	// Full pages are requested so footer social links survive.
	mainOnly := false
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: &mainOnly,
		TimeoutMillis:   int(f.timeout.Milliseconds()),
	})
	if err != nil {
		return nil, err
	}

	pageURL := resp.Data.Metadata.SourceURL
	if pageURL == "" {
		pageURL = targetURL
	}
	return &Result{
		Page: Page{
			URL:        pageURL,
			Title:      resp.Data.Metadata.Title,
			Markdown:   resp.Data.Markdown,
			StatusCode: resp.Data.Metadata.StatusCode,
		},
		Source: "firecrawl",
	}, nil
}
