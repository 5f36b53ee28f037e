// Package scrape fetches company web pages as markdown through an ordered
// chain of backends (Firecrawl, Jina Reader, and a local HTTP fetcher).
package scrape

import "context"

// Page is a fetched web page rendered as markdown.
type Page struct {
	URL        string
	Title      string
	Markdown   string
	StatusCode int
}

// Result holds a scraped page with its source.
type Result struct {
	Page   Page
	Source string // e.g. "jina", "firecrawl"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
