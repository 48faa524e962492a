// Package retry separates retry mechanics from business fallback logic.
package retry

import (
	"context"
	"time"
)

// Policy retries an operation a fixed number of times with exponential
// backoff, respecting context cancellation. The zero value is unusable;
// construct with NewPolicy.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
}

func NewPolicy(maxAttempts int, baseDelay time.Duration) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Policy{maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// Do runs op until it succeeds, the attempts are exhausted, the context
// is done, or retryable reports an error as permanent. It returns the
// last error observed.
func (p Policy) Do(ctx context.Context, op func() error, retryable func(error) bool) error {
	backoff := p.baseDelay

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.maxAttempts {
			return lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return lastErr
}
