package polymarket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

func TestRetryDo(t *testing.T) {
	t.Run("succeeds without retrying", func(t *testing.T) {
		policy := RetryPolicy{MaxRetries: 3, Delay: time.Millisecond}
		calls := 0

		err := policy.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient failures up to the budget", func(t *testing.T) {
		policy := RetryPolicy{MaxRetries: 2, Delay: time.Millisecond}
		calls := 0
		transient := errors.New("connection reset")

		err := policy.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return transient
		})

		// Initial attempt plus MaxRetries retries.
		assert.Equal(t, 3, calls)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		assert.ErrorIs(t, err, transient)
	})

	t.Run("recovers when a later attempt succeeds", func(t *testing.T) {
		policy := RetryPolicy{MaxRetries: 3, Delay: time.Millisecond}
		calls := 0

		err := policy.Do(context.Background(), "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("flaky")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-transient errors abort immediately", func(t *testing.T) {
		policy := RetryPolicy{MaxRetries: 5, Delay: time.Millisecond}
		calls := 0

		err := policy.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return domain.ErrNotFound
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("unauthorized aborts immediately", func(t *testing.T) {
		policy := RetryPolicy{MaxRetries: 5, Delay: time.Millisecond}
		calls := 0

		err := policy.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return domain.ErrUnauthorized
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("cancelled context stops the loop", func(t *testing.T) {
		policy := RetryPolicy{MaxRetries: 10, Delay: 50 * time.Millisecond}
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0

		err := policy.Do(ctx, "op", func(context.Context) error {
			calls++
			cancel()
			return errors.New("transient")
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, domain.ErrContextDone)
	})

	t.Run("zero retries means a single attempt", func(t *testing.T) {
		policy := RetryPolicy{MaxRetries: 0, Delay: time.Millisecond}
		calls := 0

		err := policy.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return errors.New("boom")
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})
}
