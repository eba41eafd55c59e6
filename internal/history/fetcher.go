// Package history walks a calendar date range day by day and collects every
// fill the exchange reports for each day.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/LvisWang/binance-accounting/internal/domain"
	"github.com/LvisWang/binance-accounting/internal/ports"
)

// DefaultDayDelay paces consecutive day requests against one exchange.
const DefaultDayDelay = 150 * time.Millisecond

// DayFailure records a day whose fetch failed after retries were exhausted.
type DayFailure struct {
	Date time.Time
	Err  error
}

// Result is the outcome of one range fetch. Trades from failed days are
// simply absent; FailedDays says which ones.
type Result struct {
	Trades     []domain.Trade
	Days       int
	FailedDays []DayFailure
}

// Fetcher retrieves historical trades from one exchange account.
type Fetcher struct {
	source ports.ExchangeClient
	logger ports.Logger
	pace   *rate.Limiter
}

// Config holds configuration for a Fetcher.
type Config struct {
	Source   ports.ExchangeClient
	Logger   ports.Logger
	DayDelay time.Duration // pause between day requests; DefaultDayDelay when zero
}

// New creates a new range fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("%w: exchange client is required", ports.ErrConfigurationError)
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ports.ErrConfigurationError)
	}
	delay := cfg.DayDelay
	if delay <= 0 {
		delay = DefaultDayDelay
	}
	return &Fetcher{
		source: cfg.Source,
		logger: cfg.Logger,
		pace:   rate.NewLimiter(rate.Every(delay), 1),
	}, nil
}

// FetchRange collects trades for every day from start through end inclusive.
// A day that still fails after retries is recorded and skipped; only context
// cancellation aborts the walk.
func (f *Fetcher) FetchRange(ctx context.Context, symbol string, start, end time.Time) (*Result, error) {
	first := truncateToDay(start)
	last := truncateToDay(end)
	if last.Before(first) {
		return nil, fmt.Errorf("%w: end date %s is before start date %s",
			ports.ErrInvalidRequest, last.Format("2006-01-02"), first.Format("2006-01-02"))
	}

	res := &Result{}
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if err := f.pace.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
		}

		trades, err := f.source.FetchDayTrades(ctx, symbol, day)
		res.Days++
		if err != nil {
			if errors.Is(err, ports.ErrContextCanceled) || ctx.Err() != nil {
				return nil, err
			}
			f.logger.Warn(ctx, "day fetch failed, skipping", map[string]interface{}{
				"symbol": symbol,
				"day":    day.Format("2006-01-02"),
				"error":  err.Error(),
			})
			res.FailedDays = append(res.FailedDays, DayFailure{Date: day, Err: err})
			continue
		}

		res.Trades = append(res.Trades, trades...)
		f.logger.Debug(ctx, "day fetched", map[string]interface{}{
			"symbol": symbol,
			"day":    day.Format("2006-01-02"),
			"count":  len(trades),
		})
	}

	f.logger.Info(ctx, "range fetch completed", map[string]interface{}{
		"symbol":     symbol,
		"days":       res.Days,
		"failedDays": len(res.FailedDays),
		"trades":     len(res.Trades),
	})
	return res, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
