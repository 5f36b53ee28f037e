// Package search runs web searches against Jina, SearXNG or Perplexity with
// ordered fallback between them.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher returns up to limit results for query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// ErrNoBackends is returned by an empty Chain.
var ErrNoBackends = eris.New("search: no backends configured")

// Chain tries each backend in order and returns the first non-empty result
// set. A backend that errors is skipped; an empty result from the last
// backend that answered is returned as-is.
type Chain struct {
	backends []Searcher
	breakers *resilience.Breakers
	policy   resilience.Policy
	timeout  time.Duration
}

// NewChain creates a fallback chain. breakers may be nil.
func NewChain(breakers *resilience.Breakers, policy resilience.Policy, backends ...Searcher) *Chain {
	return &Chain{backends: backends, breakers: breakers, policy: policy}
}

// Name implements Searcher.
func (c *Chain) Name() string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Search implements Searcher.
func (c *Chain) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if len(c.backends) == 0 {
		return nil, ErrNoBackends
	}

	var errs []error
	answered := false
	for _, b := range c.backends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := c.try(ctx, b, query, limit)
		if err != nil {
			zap.L().Warn("search: backend failed",
				zap.String("backend", b.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		answered = true
		if len(results) > 0 {
			zap.L().Debug("search: results",
				zap.String("backend", b.Name()),
				zap.String("query", query),
				zap.Int("count", len(results)),
			)
			return results, nil
		}
	}

	if answered {
		return nil, nil
	}
	return nil, eris.Wrap(errors.Join(errs...), "search: all backends failed")
}

func (c *Chain) try(ctx context.Context, b Searcher, query string, limit int) ([]Result, error) {
	call := func(ctx context.Context) ([]Result, error) {
		return resilience.Do(ctx, c.policy, func(ctx context.Context) ([]Result, error) {
			if c.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.timeout)
				defer cancel()
			}
			return b.Search(ctx, query, limit)
		})
	}
	if c.breakers == nil {
		return call(ctx)
	}
	return resilience.Guard(ctx, c.breakers.For("search:"+b.Name()), call)
}

func clip(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
