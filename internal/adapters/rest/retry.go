// Package rest holds the retry/backoff policy and transport error
// classification shared by the signed exchange clients. The policy is the
// same for every exchange: HTTP 429 and transport failures back off
// exponentially (1s, 2s, 4s, ...), anything else fails the call immediately.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jpillora/backoff"

	"github.com/LvisWang/binance-accounting/internal/ports"
)

const (
	// DefaultMaxRetries bounds how many times a retryable failure is
	// re-attempted after the initial call.
	DefaultMaxRetries = 3

	// DefaultRequestTimeout is the per-attempt HTTP timeout.
	DefaultRequestTimeout = 30 * time.Second
)

// Policy retries rate-limited and transport failures with exponential
// backoff. Backoff state lives inside a single Do call, so concurrent calls
// on the same client never share a retry ladder.
type Policy struct {
	MaxRetries int
	MinDelay   time.Duration
	MaxDelay   time.Duration
	Logger     ports.Logger
}

// NewPolicy returns the uniform policy used in production: up to 3 retries
// sleeping 1s, 2s, 4s between attempts.
func NewPolicy(logger ports.Logger) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		MinDelay:   1 * time.Second,
		MaxDelay:   30 * time.Second,
		Logger:     logger,
	}
}

// Do runs call until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. The last error is returned wrapped so errors.Is
// still identifies its class.
func (p Policy) Do(ctx context.Context, op string, call func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    p.MinDelay,
		Max:    p.MaxDelay,
		Factor: 2,
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err := call(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !Retryable(err) {
			return err
		}
		if attempt == p.MaxRetries {
			break
		}

		delay := b.Duration()
		if p.Logger != nil {
			p.Logger.Warn(ctx, op+": transient failure, backing off", map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay.String(),
				"error":   err.Error(),
			})
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s canceled during backoff: %w: %w", op, ports.ErrContextCanceled, ctx.Err())
		}
	}

	return fmt.Errorf("%s: retry budget exhausted after %d attempts: %w", op, p.MaxRetries+1, lastErr)
}

// Retryable reports whether err is in the rate-limit or transport class.
// Application rejections and credential failures are final.
func Retryable(err error) bool {
	return errors.Is(err, ports.ErrRateLimited) ||
		errors.Is(err, ports.ErrConnectionFailed) ||
		errors.Is(err, ports.ErrTimeout)
}

// ClassifyTransport maps a raw HTTP transport error onto the sentinel
// taxonomy. Context cancellation by the caller is kept distinct from network
// timeouts so it is never retried.
func ClassifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	}
	// DNS failures, refused connections, TLS handshake errors and resets
	// all land here.
	return fmt.Errorf("%w: %w", ports.ErrConnectionFailed, err)
}
