// Package binance adapts the Binance spot REST API to ports.ExchangeClient.
// Request signing (HMAC-SHA256 over the encoded query, timestamp and
// signature as query params, key in the X-MBX-APIKEY header) is handled by
// the go-binance SDK; this adapter owns error classification, the retry
// policy and translation into the canonical trade record.
package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"github.com/LvisWang/binance-accounting/internal/adapters/rest"
	"github.com/LvisWang/binance-accounting/internal/domain"
	"github.com/LvisWang/binance-accounting/internal/ports"
)

const (
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	// myTrades returns at most this many fills per request.
	pageLimit = 1000
)

// Client implements ports.ExchangeClient for Binance spot accounts.
type Client struct {
	api    *gobinance.Client
	logger ports.Logger
	policy rest.Policy
}

// Config holds configuration specific to the Binance adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
	Policy     *rest.Policy // optional; defaults to the uniform retry policy
	BaseURL    string       // optional override, used by tests
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for Binance client", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: API key and secret are required", ports.ErrInvalidAPIKeys)
	}

	api := gobinance.NewClient(cfg.APIKey, cfg.SecretKey)
	api.HTTPClient = &http.Client{Timeout: rest.DefaultRequestTimeout}

	switch {
	case cfg.BaseURL != "":
		api.BaseURL = cfg.BaseURL
	case cfg.UseTestnet:
		api.BaseURL = baseURLTestnet
	default:
		api.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": api.BaseURL})

	policy := rest.NewPolicy(cfg.Logger)
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}

	return &Client{api: api, logger: cfg.Logger, policy: policy}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow; retrying won't fix clock skew
			mappedErr = ports.ErrExchangeRejected
		case -1022: // Invalid signature
			mappedErr = ports.ErrAuthenticationFailed
		case -2014, -2015: // API-key format invalid / invalid key, IP or permissions
			mappedErr = ports.ErrInvalidAPIKeys
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1121: // parameter errors, bad symbol
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrExchangeRejected
		}
		finalErr := fmt.Errorf("%s failed: %w: %s", operation, mappedErr, apiErr.Message)
		c.logger.Error(ctx, err, operation+" failed with API error", fields)
		return finalErr
	}

	classified := rest.ClassifyTransport(err)
	c.logger.Error(ctx, err, operation+" failed", fields)
	return fmt.Errorf("%s failed: %w", operation, classified)
}

// Ping checks connectivity to the exchange, then validates the credentials
// with one signed account call.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.api.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, op)
	}

	account, err := c.api.NewGetAccountService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, "GetAccount")
	}
	c.logger.Info(ctx, "Binance account verified", map[string]interface{}{
		"accountType": account.AccountType,
		"canTrade":    account.CanTrade,
	})
	return nil
}

// ServerTime retrieves the current server time from the exchange.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	op := "ServerTime"
	ms, err := c.api.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.handleError(ctx, err, op)
	}
	return time.UnixMilli(ms), nil
}

// FetchDayTrades returns all fills for the symbol executed on the given
// calendar day, retried under the uniform backoff policy.
func (c *Client) FetchDayTrades(ctx context.Context, symbol string, day time.Time) ([]domain.Trade, error) {
	op := "FetchDayTrades"
	startMs, endMs := domain.DayWindow(day)
	requested := strings.ToUpper(symbol)

	var raw []*gobinance.TradeV3
	err := c.policy.Do(ctx, "binance myTrades", func(ctx context.Context) error {
		res, err := c.api.NewListTradesService().
			Symbol(requested).
			StartTime(startMs).
			EndTime(endMs).
			Limit(pageLimit).
			Do(ctx)
		if err != nil {
			return c.handleError(ctx, err, op)
		}
		raw = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(raw))
	for _, r := range raw {
		trades = append(trades, translateTrade(r, requested))
	}
	c.logger.Debug(ctx, op+" completed", map[string]interface{}{
		"symbol": requested,
		"day":    day.Format("2006-01-02"),
		"count":  len(trades),
	})
	return trades, nil
}
