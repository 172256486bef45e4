// Package retry wraps page-level operations in bounded retries with
// exponential backoff. Transient and permanent site failures look the
// same from here, so every failure is retried up to the attempt limit;
// classification happens one level up, where an exhausted budget means
// "skip this page" rather than "abort the run".
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrExhausted marks an operation that failed on every attempt.
var ErrExhausted = errors.New("retries exhausted")

type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func New(maxAttempts int, baseDelay time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      slog.Default().With("component", "retry"),
	}
}

// Do runs op until it succeeds or the attempt budget is spent. Attempt i
// (1-indexed) is followed by a baseDelay * 2^(i-1) wait. The returned
// error wraps both ErrExhausted and the last failure.
func (r *Retrier) Do(ctx context.Context, name string, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		r.logger.Warn("attempt failed",
			"operation", name, "attempt", attempt, "max", r.maxAttempts, "error", lastErr)

		if attempt == r.maxAttempts {
			break
		}

		backoff := r.baseDelay * (1 << (attempt - 1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, r.maxAttempts, lastErr)
}
