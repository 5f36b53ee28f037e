package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Chain tries scrapers in priority order, returning the first success.
type Chain struct {
	PathMatcher *PathMatcher
	scrapers    []Scraper
	breakers    *resilience.Breakers
	timeout     time.Duration
}

// NewChain creates a Chain with the given path matcher and scrapers.
// Scrapers are tried in order; the first successful result is returned.
func NewChain(matcher *PathMatcher, scrapers ...Scraper) *Chain {
	if matcher == nil {
		matcher = NewPathMatcher(nil)
	}
	return &Chain{
		PathMatcher: matcher,
		scrapers:    scrapers,
	}
}

// WithBreakers guards each scraper with the breaker named "scrape:<name>".
func (c *Chain) WithBreakers(b *resilience.Breakers) *Chain {
	c.breakers = b
	return c
}

// WithTimeout bounds each individual scraper attempt.
func (c *Chain) WithTimeout(d time.Duration) *Chain {
	c.timeout = d
	return c
}

// Name implements Scraper.
func (c *Chain) Name() string {
	names := make([]string, len(c.scrapers))
	for i, s := range c.scrapers {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Supports implements Scraper.
func (c *Chain) Supports(targetURL string) bool {
	return !c.PathMatcher.IsExcluded(targetURL)
}

// Scrape tries each scraper in order for a single URL.
// Returns the first result with content, or an error if all fail.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if c.PathMatcher.IsExcluded(targetURL) {
		return nil, eris.Errorf("scrape: url excluded by path matcher: %s", targetURL)
	}

	var lastErr error
	for _, s := range c.scrapers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.Supports(targetURL) {
			continue
		}
		result, err := c.try(ctx, s, targetURL)
		if err == nil && result != nil && strings.TrimSpace(result.Page.Markdown) != "" {
			zap.L().Debug("scrape: fetched",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Int("chars", len(result.Page.Markdown)),
			)
			return result, nil
		}
		if err == nil {
			err = eris.Errorf("scrape: %s returned empty content", s.Name())
		}
		zap.L().Debug("scrape: scraper failed, trying next",
			zap.String("scraper", s.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

func (c *Chain) try(ctx context.Context, s Scraper, targetURL string) (*Result, error) {
	call := func(ctx context.Context) (*Result, error) {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return s.Scrape(ctx, targetURL)
	}
	if c.breakers == nil {
		return call(ctx)
	}
	return resilience.Guard(ctx, c.breakers.For("scrape:"+s.Name()), call)
}
