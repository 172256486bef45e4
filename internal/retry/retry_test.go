package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	r := New(3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRecoversAfterFailures(t *testing.T) {
	r := New(3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	r := New(3, time.Millisecond)
	opErr := errors.New("page timeout")

	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		return opErr
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, opErr)
}

func TestDoBackoffDoubles(t *testing.T) {
	base := 20 * time.Millisecond
	r := New(3, base)

	start := time.Now()
	err := r.Do(context.Background(), "op", func() error {
		return errors.New("always fails")
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	// Two waits between three attempts: base + 2*base.
	assert.GreaterOrEqual(t, elapsed, 3*base)
	assert.Less(t, elapsed, 10*base)
}

func TestDoContextCancelledDuringBackoff(t *testing.T) {
	r := New(5, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	calls := 0
	err := r.Do(ctx, "op", func() error {
		calls++
		return errors.New("fails")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestDoContextAlreadyCancelled(t *testing.T) {
	r := New(3, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, "op", func() error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
