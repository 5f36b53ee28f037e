package search

import (
	"context"
	"strings"

	"github.com/sells-group/outreach-cli/pkg/jina"
	"github.com/sells-group/outreach-cli/pkg/perplexity"
	"github.com/sells-group/outreach-cli/pkg/searxng"
)

// Jina searches with s.jina.ai.
type Jina struct {
	client jina.Client
	region string
}

// NewJina creates a Jina searcher.
func NewJina(client jina.Client, region string) *Jina {
	return &Jina{client: client, region: region}
}

// Name implements Searcher.
func (j *Jina) Name() string { return "jina" }

// Search implements Searcher.
func (j *Jina) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	opts := []jina.SearchOption{jina.WithRegion(j.region)}
	if limit > 0 {
		opts = append(opts, jina.WithNum(limit))
	}
	resp, err := j.client.Search(ctx, query, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(resp.Data))
	for _, r := range resp.Data {
		snippet := r.Description
		if snippet == "" {
			snippet = r.Content
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: snippet})
	}
	return clip(out, limit), nil
}

// maxSearXNGPages bounds paging when filling a large result pool.
const maxSearXNGPages = 4

// SearXNG searches a SearXNG instance, paging until limit is reached.
type SearXNG struct {
	client searxng.Client
	region string
}

// NewSearXNG creates a SearXNG searcher.
func NewSearXNG(client searxng.Client, region string) *SearXNG {
	return &SearXNG{client: client, region: region}
}

// Name implements Searcher.
func (s *SearXNG) Name() string { return "searxng" }

// Search implements Searcher.
func (s *SearXNG) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	var out []Result
	seen := make(map[string]bool)
	for page := 1; page <= maxSearXNGPages; page++ {
		resp, err := s.client.Search(ctx, query, searxng.WithRegion(s.region), searxng.WithPage(page))
		if err != nil {
			if page > 1 && len(out) > 0 {
				break
			}
			return nil, err
		}
		added := 0
		for _, r := range resp.Results {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
			added++
		}
		if added == 0 || limit <= 0 || len(out) >= limit {
			break
		}
	}
	return clip(out, limit), nil
}

// Perplexity turns Perplexity's grounded answer sources into search results.
type Perplexity struct {
	client perplexity.Client
}

// NewPerplexity creates a Perplexity searcher.
func NewPerplexity(client perplexity.Client) *Perplexity {
	return &Perplexity{client: client}
}

// Name implements Searcher.
func (p *Perplexity) Name() string { return "perplexity" }

// Search implements Searcher.
func (p *Perplexity) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	temp := 0.0
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: "You are a web search engine. List the most relevant web pages for the query, one per line."},
			{Role: "user", Content: query},
		},
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}

	var out []Result
	seen := make(map[string]bool)
	for _, r := range resp.SearchResults {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, Result{Title: r.Title, URL: r.URL})
	}
	for _, u := range resp.Citations {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, Result{Title: titleFromURL(u), URL: u})
	}
	return clip(out, limit), nil
}

func titleFromURL(u string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}
