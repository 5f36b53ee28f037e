package scrape

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/firecrawl"
	"github.com/sells-group/outreach-cli/pkg/jina"
)

// ErrNoScrapers is returned when no configured backend is usable.
var ErrNoScrapers = eris.New("scrape: no backends configured")

// New builds the configured scrape chain. Firecrawl is skipped with a
// warning when no key is set; Jina Reader works keyless at a lower rate.
func New(cfg *config.Config, breakers *resilience.Breakers) (*Chain, error) {
	timeout := time.Duration(cfg.Scrape.TimeoutSecs) * time.Second

	var scrapers []Scraper
	for _, name := range cfg.Scrape.Backends {
		switch name {
		case "firecrawl":
			if cfg.Firecrawl.Key == "" {
				zap.L().Warn("scrape: firecrawl.key not set, skipping firecrawl backend")
				continue
			}
			var opts []firecrawl.Option
			if cfg.Firecrawl.BaseURL != "" {
				opts = append(opts, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
			}
			scrapers = append(scrapers, NewFirecrawlAdapter(firecrawl.NewClient(cfg.Firecrawl.Key, opts...), timeout))
		case "jina":
			var opts []jina.Option
			if cfg.Jina.BaseURL != "" {
				opts = append(opts, jina.WithBaseURL(cfg.Jina.BaseURL))
			}
			scrapers = append(scrapers, NewJinaAdapter(jina.NewClient(cfg.Jina.Key, opts...)))
		case "local":
			scrapers = append(scrapers, NewLocalScraper(nil))
		default:
			return nil, eris.Errorf("scrape: unknown backend %q", name)
		}
	}
	if len(scrapers) == 0 {
		return nil, ErrNoScrapers
	}

	chain := NewChain(NewPathMatcher(cfg.Scrape.ExcludePaths), scrapers...).WithBreakers(breakers)
	if timeout > 0 {
		chain.WithTimeout(timeout)
	}
	return chain, nil
}
