// Package ratelimit paces navigation requests. Lazada's anti-bot layer
// keys on request cadence, so the delay between navigations is drawn
// uniformly from a configured [min,max] interval instead of being fixed.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Limiter interface {
	Wait(ctx context.Context) error
}

// JitterLimiter enforces a randomized minimum gap since the last request.
type JitterLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	last     time.Time
}

func NewJitterLimiter(minDelay, maxDelay time.Duration) *JitterLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &JitterLimiter{minDelay: minDelay, maxDelay: maxDelay}
}

// Wait blocks until the randomized delay since the previous call has
// elapsed, or the context is cancelled.
func (l *JitterLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delay := l.nextDelay()
	if elapsed := time.Since(l.last); elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	l.last = time.Now()
	return nil
}

func (l *JitterLimiter) nextDelay() time.Duration {
	if l.maxDelay == l.minDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(rand.Int63n(int64(l.maxDelay-l.minDelay)))
}
