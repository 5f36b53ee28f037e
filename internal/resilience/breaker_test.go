package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fail(context.Context) (int, error) { return 0, errors.New("down") }
func ok(context.Context) (int, error)   { return 1, nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("jina", 2, time.Minute)
	ctx := context.Background()

	_, _ = Guard(ctx, b, fail)
	assert.Equal(t, StateClosed, b.State())
	_, _ = Guard(ctx, b, fail)
	assert.Equal(t, StateOpen, b.State())

	called := false
	_, err := Guard(ctx, b, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b := NewBreaker("x", 2, time.Minute)
	ctx := context.Background()
	_, _ = Guard(ctx, b, fail)
	_, _ = Guard(ctx, b, ok)
	_, _ = Guard(ctx, b, fail)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker("x", 1, time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = Guard(ctx, b, fail)
	require.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	// failed probe reopens
	_, _ = Guard(ctx, b, fail)
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Second)
	v, err := Guard(ctx, b, ok)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_CancellationNotCounted(t *testing.T) {
	b := NewBreaker("x", 1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Guard(ctx, b, func(ctx context.Context) (int, error) { return 0, ctx.Err() })
	require.Error(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakers_Registry(t *testing.T) {
	r := NewBreakers(1, time.Minute)
	a := r.For("jina")
	assert.Same(t, a, r.For("jina"))
	assert.NotSame(t, a, r.For("firecrawl"))

	_, _ = Guard(context.Background(), a, fail)
	states := r.States()
	assert.Equal(t, StateOpen, states["jina"])
	assert.Equal(t, StateClosed, states["firecrawl"])
	assert.Equal(t, "open", states["jina"].String())
}
