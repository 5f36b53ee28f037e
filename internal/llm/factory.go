package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

// New builds the named backend ("anthropic", "openai" or "gemini") wrapped in
// the configured rate limit, retry policy and timeout.
func New(ctx context.Context, cfg *config.Config, provider string, observer Observer) (Completer, error) {
	var inner Completer
	switch provider {
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("llm: anthropic.key is required")
		}
		inner = NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, cfg.LLM.MaxTokens)
	case "openai":
		e, err := NewOpenAICompatible(ctx, cfg.OpenAI.BaseURL, cfg.OpenAI.Key, cfg.OpenAI.Model)
		if err != nil {
			return nil, err
		}
		inner = e
	case "gemini":
		g, err := NewGemini(ctx, cfg.Gemini.Key, cfg.Gemini.Model, cfg.Gemini.BaseURL)
		if err != nil {
			return nil, err
		}
		inner = g
	default:
		return nil, eris.Errorf("llm: unknown provider %q", provider)
	}

	policy := resilience.DefaultPolicy("llm:" + provider)
	if cfg.LLM.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.LLM.MaxAttempts
	}
	return NewLimited(inner, provider,
		WithRate(cfg.LLM.RequestsPerMin, cfg.LLM.Burst),
		WithPolicy(policy),
		WithTimeout(time.Duration(cfg.LLM.TimeoutSecs)*time.Second),
		WithObserver(observer),
	), nil
}

// Pair holds the completers for analysis stages and for drafting. Draft may
// share the analysis backend.
type Pair struct {
	Analyst Completer
	Writer  Completer
}

// NewPair builds the analysis completer from llm.provider and the drafting
// completer from llm.draft_provider, falling back to the analysis one.
func NewPair(ctx context.Context, cfg *config.Config, observer Observer) (Pair, error) {
	analyst, err := New(ctx, cfg, cfg.LLM.Provider, observer)
	if err != nil {
		return Pair{}, err
	}
	if cfg.LLM.DraftProvider == "" || cfg.LLM.DraftProvider == cfg.LLM.Provider {
		return Pair{Analyst: analyst, Writer: analyst}, nil
	}
	writer, err := New(ctx, cfg, cfg.LLM.DraftProvider, observer)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Analyst: analyst, Writer: writer}, nil
}
