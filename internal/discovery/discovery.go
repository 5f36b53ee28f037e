// Package discovery turns a niche query into candidate company websites.
package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/search"
)

const (
	defaultPoolSize    = 40
	defaultQuerySuffix = "official website"
)

// Searcher runs a web search. *search.Chain satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// Discoverer finds candidate company sites for a niche.
type Discoverer struct {
	searcher    Searcher
	filter      *Filter
	poolSize    int
	querySuffix string
}

// New creates a Discoverer from the discovery config section.
func New(searcher Searcher, cfg config.DiscoveryConfig) *Discoverer {
	d := &Discoverer{
		searcher:    searcher,
		filter:      NewFilter(cfg.DomainBlacklist, cfg.PathBlacklist, cfg.ListicleMarkers),
		poolSize:    cfg.PoolSize,
		querySuffix: cfg.QuerySuffix,
	}
	if d.poolSize <= 0 {
		d.poolSize = defaultPoolSize
	}
	if d.querySuffix == "" {
		d.querySuffix = defaultQuerySuffix
	}
	return d
}

// Query returns the search query issued for a niche.
func (d *Discoverer) Query(niche string) string {
	return strings.TrimSpace(strings.TrimSpace(niche) + " " + d.querySuffix)
}

// FindCompanies issues one oversized search for the niche and returns the
// hits that look like company sites, in relevance order. count only sizes
// the log line; the pool is fixed because many hits are filtered out. An
// empty search or a failing backend yields no candidates, never an error.
func (d *Discoverer) FindCompanies(ctx context.Context, niche string, count int) []model.Candidate {
	log := zap.L().With(zap.String("niche", niche), zap.Int("target", count))
	query := d.Query(niche)

	hits, err := d.searcher.Search(ctx, query, d.poolSize)
	if err != nil {
		log.Warn("discovery: search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(hits) == 0 {
		log.Info("discovery: search returned no results", zap.String("query", query))
		return nil
	}

	candidates, rejected := d.filter.Apply(ctx, hits)
	log.Info("discovery: candidates found",
		zap.Int("raw", len(hits)),
		zap.Int("candidates", len(candidates)),
		zap.Any("rejected", rejected),
	)
	return candidates
}
