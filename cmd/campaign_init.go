package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/campaign"
	"github.com/sells-group/outreach-cli/internal/discovery"
	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/scrape"
	"github.com/sells-group/outreach-cli/internal/search"
	"github.com/sells-group/outreach-cli/internal/store"
)

// campaignEnv holds the store, clients and runner needed by the run and
// serve commands.
type campaignEnv struct {
	Store    store.Store
	Runner   *campaign.Runner
	Metrics  *metrics.Metrics
	Breakers *resilience.Breakers
}

// Close releases resources held by the campaign environment.
func (ce *campaignEnv) Close() {
	if ce.Store != nil {
		_ = ce.Store.Close()
	}
}

// initStore opens the configured history/result store.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initCampaign wires search, scrape, LLM, enrichment and the runner.
// Callers should defer env.Close().
func initCampaign(ctx context.Context) (*campaignEnv, error) {
	if err := cfg.Validate("campaign"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	breakers := resilience.NewBreakers(cfg.Breaker.Threshold, time.Duration(cfg.Breaker.CooldownSecs)*time.Second)
	m := metrics.New(breakers)

	searcher, err := search.New(cfg, breakers)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	pages, err := scrape.New(cfg, breakers)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	pair, err := llm.NewPair(ctx, cfg, m.ObserveLLM)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	enrichOpts := []enrich.Option{
		enrich.WithQualifyLimit(cfg.Campaign.QualifyCharLimit),
		enrich.WithIdentifyLimit(cfg.Campaign.IdentifyCharLimit),
		enrich.WithSearchResults(cfg.Identify.SearchResults),
		enrich.WithDraftTemperature(cfg.LLM.DraftTemperature),
		enrich.WithSender(cfg.Campaign.Sender),
	}
	if cfg.Identify.ValidateLinks {
		enrichOpts = append(enrichOpts, enrich.WithLinkValidator(
			enrich.NewLinkValidator(time.Duration(cfg.Identify.ValidateTimeoutSecs)*time.Second),
		))
	}
	enricher := enrich.New(pages, searcher, pair, enrichOpts...)

	runner := campaign.New(
		discovery.New(searcher, cfg.Discovery),
		st, st, enricher,
		campaign.WithDelay(time.Duration(cfg.Campaign.DelayMillis)*time.Millisecond),
		campaign.WithRememberRejected(cfg.Campaign.RememberRejected),
		campaign.WithObserver(m),
	)

	zap.L().Info("campaign environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("search", searcher.Name()),
		zap.String("scrape", pages.Name()),
		zap.String("llm", cfg.LLM.Provider),
	)

	return &campaignEnv{Store: st, Runner: runner, Metrics: m, Breakers: breakers}, nil
}
