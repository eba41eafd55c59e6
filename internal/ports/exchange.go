package ports

import (
	"context"
	"time"

	"github.com/LvisWang/binance-accounting/internal/domain"
)

// ExchangeClient defines the capability surface every exchange adapter
// provides to the history fetcher and the aggregator. One concrete
// implementation exists per exchange kind, selected at account registration.
type ExchangeClient interface {
	// Ping verifies connectivity and credential validity. It hits a public
	// endpoint first so an unreachable network is distinguishable from
	// rejected credentials, then performs one signed call.
	Ping(ctx context.Context) error

	// FetchDayTrades returns every fill for the symbol executed on the given
	// calendar day (local midnight to midnight+24h-1s). The symbol is the
	// caller's notation; adapters translate to and from their native one.
	FetchDayTrades(ctx context.Context, symbol string, day time.Time) ([]domain.Trade, error)
}
