package enrich

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/scrape"
	"github.com/sells-group/outreach-cli/internal/search"
)

// --- PageFetcher Mock ---

type mockPages struct {
	mock.Mock
}

func (m *mockPages) Scrape(ctx context.Context, url string) (*scrape.Result, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scrape.Result), args.Error(1)
}

func page(md string) *scrape.Result {
	return &scrape.Result{Page: scrape.Page{Markdown: md}, Source: "stub"}
}

// --- Searcher Mock ---

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Result), args.Error(1)
}

// --- Completer Mock ---

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func stage(name string) any {
	return mock.MatchedBy(func(r llm.Request) bool { return r.Stage == name })
}

func userContains(sub string) any {
	return mock.MatchedBy(func(r llm.Request) bool { return strings.Contains(r.User, sub) })
}

func newTestEnricher(pages PageFetcher, s Searcher, c llm.Completer, opts ...Option) *Enricher {
	return New(pages, s, llm.Pair{Analyst: c}, opts...)
}
