package polymarket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// RetryPolicy is a bounded fixed-delay retry for upstream HTTP calls. Fixed
// delay rather than backoff: the bound matters more than politeness here,
// since a degraded upstream should fail the call quickly rather than block.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy matches the upstream gateway defaults: two retries,
// one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Delay: time.Second}
}

// Do runs fn up to 1+MaxRetries times, sleeping Delay between attempts.
// Non-transient failures (not found, unauthorized) abort immediately. When
// all attempts fail on transport errors the final error is wrapped in
// ErrUpstreamUnavailable so callers can tell "try again later" apart from
// "does not exist".
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w: %w", op, domain.ErrContextDone, ctx.Err())
			case <-time.After(p.Delay):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return fmt.Errorf("%s: %w", op, lastErr)
		}
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, lastErr)
}

// isTransient reports whether an error is worth retrying. 404s and auth
// failures will not heal on a retry; everything else (network errors, 5xx,
// rate limits) might.
func isTransient(err error) bool {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
