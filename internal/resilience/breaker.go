package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned when a backend is short-circuited after too many
// consecutive failures.
var ErrBreakerOpen = eris.New("resilience: breaker open")

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker stops calling a backend after Threshold consecutive failures and
// lets a single probe through once Cooldown has passed.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker creates a closed breaker. Non-positive values fall back to
// 5 failures and a 30s cooldown.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// State returns the breaker's current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		b.state = StateHalfOpen
		return nil
	}
	return eris.Wrapf(ErrBreakerOpen, "backend %s", b.name)
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != StateClosed {
			zap.L().Info("resilience: breaker closed", zap.String("backend", b.name))
		}
		b.state = StateClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.threshold {
		if b.state != StateOpen {
			zap.L().Warn("resilience: breaker opened",
				zap.String("backend", b.name),
				zap.Int("failures", b.failures),
			)
		}
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// Guard runs fn through the breaker. Context cancellation does not count as
// a backend failure.
func Guard[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		return zero, err
	}
	b.record(err)
	return val, err
}

// Breakers hands out one Breaker per backend name.
type Breakers struct {
	threshold int
	cooldown  time.Duration

	mu  sync.Mutex
	set map[string]*Breaker
}

// NewBreakers creates a registry whose breakers share one configuration.
func NewBreakers(threshold int, cooldown time.Duration) *Breakers {
	return &Breakers{threshold: threshold, cooldown: cooldown, set: make(map[string]*Breaker)}
}

// For returns the breaker for name, creating it on first use.
func (r *Breakers) For(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.set[name]; ok {
		return b
	}
	b := NewBreaker(name, r.threshold, r.cooldown)
	r.set[name] = b
	return b
}

// States returns a snapshot of every breaker's state, keyed by backend.
func (r *Breakers) States() map[string]BreakerState {
	r.mu.Lock()
	all := make([]*Breaker, 0, len(r.set))
	for _, b := range r.set {
		all = append(all, b)
	}
	r.mu.Unlock()

	out := make(map[string]BreakerState, len(all))
	for _, b := range all {
		out[b.name] = b.State()
	}
	return out
}
