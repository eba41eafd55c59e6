package rest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LvisWang/binance-accounting/internal/ports"
)

// testPolicy compresses the backoff ladder so tests stay fast while keeping
// the 1x, 2x, 4x shape.
func testPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		MinDelay:   time.Millisecond,
		MaxDelay:   100 * time.Millisecond,
	}
}

func TestPolicy_SucceedsAfterRateLimits(t *testing.T) {
	// Three consecutive 429-class failures followed by a success must
	// succeed overall, having slept min, 2*min, 4*min between attempts.
	calls := 0
	start := time.Now()
	err := testPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls <= 3 {
			return fmt.Errorf("%w: HTTP 429", ports.ErrRateLimited)
		}
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	// 1ms + 2ms + 4ms of backoff at minimum.
	assert.GreaterOrEqual(t, elapsed, 7*time.Millisecond)
}

func TestPolicy_ExhaustsBudgetOnPersistentRateLimit(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return fmt.Errorf("%w: HTTP 429", ports.ErrRateLimited)
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls) // initial attempt + 3 retries
	assert.ErrorIs(t, err, ports.ErrRateLimited)
}

func TestPolicy_DoesNotRetryApplicationErrors(t *testing.T) {
	calls := 0
	appErr := fmt.Errorf("%w: Invalid symbol", ports.ErrExchangeRejected)
	err := testPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return appErr
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, ports.ErrExchangeRejected)
}

func TestPolicy_RetriesTransportFailures(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("%w: connection reset by peer", ports.ErrConnectionFailed)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPolicy_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxRetries: 3, MinDelay: time.Second, MaxDelay: time.Second}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, "test", func(ctx context.Context) error {
		calls++
		return fmt.Errorf("%w: HTTP 429", ports.ErrRateLimited)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limited", err: ports.ErrRateLimited, want: true},
		{name: "connection failed", err: ports.ErrConnectionFailed, want: true},
		{name: "timeout", err: ports.ErrTimeout, want: true},
		{name: "exchange rejected", err: ports.ErrExchangeRejected, want: false},
		{name: "auth failed", err: ports.ErrAuthenticationFailed, want: false},
		{name: "wrapped rate limit", err: fmt.Errorf("op failed: %w", ports.ErrRateLimited), want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	assert.NoError(t, ClassifyTransport(nil))
	assert.ErrorIs(t, ClassifyTransport(context.Canceled), ports.ErrContextCanceled)
	assert.ErrorIs(t, ClassifyTransport(context.DeadlineExceeded), ports.ErrTimeout)
	assert.ErrorIs(t, ClassifyTransport(errors.New("dial tcp: connection refused")), ports.ErrConnectionFailed)
}
