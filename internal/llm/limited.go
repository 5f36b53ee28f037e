package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Observer is told about every finished backend call.
type Observer func(stage string, elapsed time.Duration, err error)

// Limited throttles, retries and times out calls to an inner Completer.
type Limited struct {
	inner    Completer
	name     string
	limiter  *rate.Limiter
	policy   resilience.Policy
	timeout  time.Duration
	observer Observer
}

// LimitOption configures a Limited completer.
type LimitOption func(*Limited)

// WithRate allows rpm requests per minute with the given burst.
func WithRate(rpm, burst int) LimitOption {
	return func(l *Limited) {
		if rpm <= 0 {
			l.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
	}
}

// WithPolicy sets the retry policy.
func WithPolicy(p resilience.Policy) LimitOption {
	return func(l *Limited) { l.policy = p }
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) LimitOption {
	return func(l *Limited) { l.timeout = d }
}

// WithObserver registers a call observer.
func WithObserver(o Observer) LimitOption {
	return func(l *Limited) { l.observer = o }
}

// NewLimited wraps inner. name identifies the backend in logs.
func NewLimited(inner Completer, name string, opts ...LimitOption) *Limited {
	l := &Limited{
		inner:  inner,
		name:   name,
		policy: resilience.DefaultPolicy("llm:" + name),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Complete implements Completer.
func (l *Limited) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := resilience.Do(ctx, l.policy, func(ctx context.Context) (string, error) {
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		if l.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, l.timeout)
			defer cancel()
		}
		return l.inner.Complete(ctx, req)
	})
	elapsed := time.Since(start)

	if l.observer != nil {
		l.observer(req.Stage, elapsed, err)
	}
	if err != nil {
		zap.L().Warn("llm: call failed",
			zap.String("backend", l.name),
			zap.String("stage", req.Stage),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", err
	}
	zap.L().Debug("llm: call complete",
		zap.String("backend", l.name),
		zap.String("stage", req.Stage),
		zap.Duration("elapsed", elapsed),
		zap.Int("chars", len(text)),
	)
	return text, nil
}
