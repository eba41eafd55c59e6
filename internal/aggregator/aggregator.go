// Package aggregator manages a set of exchange accounts and merges their
// trade history into one stream.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LvisWang/binance-accounting/internal/adapters/binance"
	"github.com/LvisWang/binance-accounting/internal/adapters/bybit"
	"github.com/LvisWang/binance-accounting/internal/adapters/okx"
	"github.com/LvisWang/binance-accounting/internal/domain"
	"github.com/LvisWang/binance-accounting/internal/history"
	"github.com/LvisWang/binance-accounting/internal/ports"
)

// Report describes the outcome of one account's range fetch.
type Report struct {
	Count        int
	Success      bool
	Err          error
	DegradedDays []history.DayFailure
}

// Aggregator registers accounts and fetches their history one by one. A
// failing account never affects another account's results.
type Aggregator struct {
	names    []string // registration order
	clients  map[string]ports.ExchangeClient
	logger   ports.Logger
	dayDelay time.Duration
}

// Config holds configuration for the Aggregator.
type Config struct {
	Logger   ports.Logger
	DayDelay time.Duration // forwarded to each account's range fetcher
}

// New creates an empty aggregator.
func New(cfg Config) (*Aggregator, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ports.ErrConfigurationError)
	}
	return &Aggregator{
		clients:  make(map[string]ports.ExchangeClient),
		logger:   cfg.Logger,
		dayDelay: cfg.DayDelay,
	}, nil
}

// Register builds the adapter for the account, verifies the credentials with
// a connectivity probe and adds it under its name.
func (a *Aggregator) Register(ctx context.Context, acc domain.AccountConfig) error {
	if err := acc.Validate(); err != nil {
		return err
	}
	if _, exists := a.clients[acc.Name]; exists {
		return fmt.Errorf("%w: %q", ports.ErrDuplicateAccount, acc.Name)
	}

	client, err := a.buildClient(ctx, acc)
	if err != nil {
		return fmt.Errorf("building client for %q failed: %w", acc.Name, err)
	}
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("connectivity probe for %q failed: %w", acc.Name, err)
	}

	a.names = append(a.names, acc.Name)
	a.clients[acc.Name] = client
	a.logger.Info(ctx, "account registered", map[string]interface{}{
		"account":  acc.Name,
		"exchange": string(acc.Exchange),
	})
	return nil
}

// RegisterClient adds an already-built client under the given name without
// probing it. Used by tests.
func (a *Aggregator) RegisterClient(name string, client ports.ExchangeClient) error {
	if _, exists := a.clients[name]; exists {
		return fmt.Errorf("%w: %q", ports.ErrDuplicateAccount, name)
	}
	a.names = append(a.names, name)
	a.clients[name] = client
	return nil
}

// Names returns the registered account names in registration order.
func (a *Aggregator) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Clear removes all registered accounts.
func (a *Aggregator) Clear() {
	a.names = nil
	a.clients = make(map[string]ports.ExchangeClient)
}

func (a *Aggregator) buildClient(ctx context.Context, acc domain.AccountConfig) (ports.ExchangeClient, error) {
	switch acc.Exchange {
	case domain.ExchangeBinance:
		return binance.New(binance.Config{
			APIKey:     acc.APIKey,
			SecretKey:  acc.SecretKey,
			UseTestnet: acc.UseTestnet,
			Logger:     a.logger,
		})
	case domain.ExchangeBybit:
		return bybit.New(ctx, bybit.Config{
			APIKey:     acc.APIKey,
			SecretKey:  acc.SecretKey,
			UseTestnet: acc.UseTestnet,
			Logger:     a.logger,
		})
	case domain.ExchangeOKX:
		return okx.New(okx.Config{
			APIKey:     acc.APIKey,
			SecretKey:  acc.SecretKey,
			Passphrase: acc.Passphrase,
			UseTestnet: acc.UseTestnet,
			Logger:     a.logger,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ports.ErrUnsupportedExchange, acc.Exchange)
	}
}

// FetchAll fetches the symbol's history from every registered account for the
// inclusive date range and returns the merged trades sorted by execution time
// ascending, plus a per-account report. Accounts are fetched in registration
// order; the sort is stable, so equal timestamps keep that order.
func (a *Aggregator) FetchAll(ctx context.Context, symbol string, start, end time.Time) ([]domain.Trade, map[string]Report, error) {
	if len(a.names) == 0 {
		return nil, nil, fmt.Errorf("%w: no accounts registered", ports.ErrAccountNotFound)
	}

	var merged []domain.Trade
	reports := make(map[string]Report, len(a.names))

	for _, name := range a.names {
		fetcher, err := history.New(history.Config{
			Source:   a.clients[name],
			Logger:   a.logger,
			DayDelay: a.dayDelay,
		})
		if err != nil {
			return nil, nil, err
		}

		res, err := fetcher.FetchRange(ctx, symbol, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			a.logger.Error(ctx, err, "account fetch failed", map[string]interface{}{"account": name})
			reports[name] = Report{Err: err}
			continue
		}

		for i := range res.Trades {
			res.Trades[i].AccountName = name
		}
		merged = append(merged, res.Trades...)
		reports[name] = Report{
			Count:        len(res.Trades),
			Success:      true,
			DegradedDays: res.FailedDays,
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time < merged[j].Time
	})

	a.logger.Info(ctx, "aggregation completed", map[string]interface{}{
		"accounts": len(a.names),
		"trades":   len(merged),
	})
	return merged, reports, nil
}
