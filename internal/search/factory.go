package search

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/jina"
	"github.com/sells-group/outreach-cli/pkg/perplexity"
	"github.com/sells-group/outreach-cli/pkg/searxng"
)

// New builds the configured search chain.
func New(cfg *config.Config, breakers *resilience.Breakers) (*Chain, error) {
	timeout := time.Duration(cfg.Search.TimeoutSecs) * time.Second
	var backends []Searcher
	for _, name := range cfg.Search.Backends {
		switch name {
		case "jina":
			var opts []jina.Option
			if cfg.Jina.SearchBaseURL != "" {
				opts = append(opts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
			}
			backends = append(backends, NewJina(jina.NewClient(cfg.Jina.Key, opts...), cfg.Search.Region))
		case "searxng":
			if cfg.SearXNG.BaseURL == "" {
				return nil, eris.New("search: searxng.base_url is required")
			}
			backends = append(backends, NewSearXNG(
				searxng.NewClient(cfg.SearXNG.BaseURL, searxng.WithTimeout(time.Duration(cfg.SearXNG.TimeoutSecs)*time.Second)),
				cfg.Search.Region,
			))
		case "perplexity":
			var opts []perplexity.Option
			if cfg.Perplexity.BaseURL != "" {
				opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
			}
			if cfg.Perplexity.Model != "" {
				opts = append(opts, perplexity.WithModel(cfg.Perplexity.Model))
			}
			backends = append(backends, NewPerplexity(perplexity.NewClient(cfg.Perplexity.Key, opts...)))
		default:
			return nil, eris.Errorf("search: unknown backend %q", name)
		}
	}
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	policy := resilience.DefaultPolicy("search")
	if cfg.Search.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Search.MaxAttempts
	}
	chain := NewChain(breakers, policy, backends...)
	if timeout > 0 {
		chain.timeout = timeout
	}
	return chain, nil
}
