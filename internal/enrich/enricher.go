package enrich

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/scrape"
	"github.com/sells-group/outreach-cli/internal/search"
)

// PageFetcher fetches one page as markdown. *scrape.Chain satisfies it.
type PageFetcher interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// Searcher runs a web search. *search.Chain satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

const (
	defaultQualifyLimit  = 6000
	defaultIdentifyLimit = 4000
	defaultSearchResults = 3
	defaultDraftTemp     = 0.6
	defaultSender        = "The Outreach Team"
)

// Enricher runs the four enrichment steps for one candidate at a time.
type Enricher struct {
	pages     PageFetcher
	searcher  Searcher
	analyst   llm.Completer
	writer    llm.Completer
	validator *LinkValidator

	qualifyLimit  int
	identifyLimit int
	searchResults int
	draftTemp     float64
	sender        string
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithQualifyLimit caps the characters of site content sent to qualify.
func WithQualifyLimit(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.qualifyLimit = n
		}
	}
}

// WithIdentifyLimit caps the characters of site content sent to the
// decision-maker extraction.
func WithIdentifyLimit(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.identifyLimit = n
		}
	}
}

// WithSearchResults sets how many search hits the identity hunt reads.
func WithSearchResults(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.searchResults = n
		}
	}
}

// WithDraftTemperature sets the sampling temperature for drafting.
func WithDraftTemperature(t float64) Option {
	return func(e *Enricher) { e.draftTemp = t }
}

// WithSender sets the sign-off used in drafted emails.
func WithSender(name string) Option {
	return func(e *Enricher) {
		if name != "" {
			e.sender = name
		}
	}
}

// WithLinkValidator drops search-derived social links that no longer resolve.
func WithLinkValidator(v *LinkValidator) Option {
	return func(e *Enricher) { e.validator = v }
}

// New creates an Enricher. The analyst completer qualifies and identifies;
// the writer drafts.
func New(pages PageFetcher, searcher Searcher, pair llm.Pair, opts ...Option) *Enricher {
	e := &Enricher{
		pages:         pages,
		searcher:      searcher,
		analyst:       pair.Analyst,
		writer:        pair.Writer,
		qualifyLimit:  defaultQualifyLimit,
		identifyLimit: defaultIdentifyLimit,
		searchResults: defaultSearchResults,
		draftTemp:     defaultDraftTemp,
		sender:        defaultSender,
	}
	if e.writer == nil {
		e.writer = e.analyst
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
