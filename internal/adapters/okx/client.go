// Package okx adapts the OKX v5 REST API to ports.ExchangeClient.
// Requests are signed with base64(HMAC-SHA256(secret, timestamp + method +
// requestPathWithQuery)) where the timestamp is ISO8601 with millisecond
// precision in UTC; key, signature, timestamp and passphrase travel in
// OK-ACCESS-* headers.
package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LvisWang/binance-accounting/internal/adapters/rest"
	"github.com/LvisWang/binance-accounting/internal/domain"
	"github.com/LvisWang/binance-accounting/internal/ports"
)

const (
	baseURLProduction = "https://www.okx.com"

	// trade/fills returns at most this many fills per request.
	pageLimit = 100

	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Client implements ports.ExchangeClient for OKX accounts.
type Client struct {
	apiKey     string
	secretKey  string
	passphrase string
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
	policy     rest.Policy
}

// Config holds configuration specific to the OKX adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	Passphrase string
	UseTestnet bool // OKX demo trading shares the production host
	Logger     ports.Logger
	Policy     *rest.Policy // optional; defaults to the uniform retry policy
	BaseURL    string       // optional override, used by tests
}

// New creates a new OKX client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for OKX client", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" || cfg.Passphrase == "" {
		return nil, fmt.Errorf("%w: API key, secret and passphrase are required", ports.ErrInvalidAPIKeys)
	}

	baseURL := baseURLProduction
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	policy := rest.NewPolicy(cfg.Logger)
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}

	cfg.Logger.Info(context.Background(), "OKX client configured", map[string]interface{}{"baseURL": baseURL})

	return &Client{
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		passphrase: cfg.Passphrase,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: rest.DefaultRequestTimeout},
		logger:     cfg.Logger,
		policy:     policy,
	}, nil
}

func (c *Client) sign(timestamp, method, requestPath string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(timestamp + method + requestPath))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// get issues one signed GET under the retry policy and returns the unwrapped
// data payload.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	op := "okx " + endpoint
	var payload json.RawMessage

	err := c.policy.Do(ctx, op, func(ctx context.Context) error {
		requestPath := "/api/v5/" + endpoint
		if encoded := params.Encode(); encoded != "" {
			requestPath += "?" + encoded
		}

		ts := time.Now().UTC().Format(timestampLayout)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
		}
		req.Header.Set("OK-ACCESS-KEY", c.apiKey)
		req.Header.Set("OK-ACCESS-SIGN", c.sign(ts, http.MethodGet, requestPath))
		req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
		req.Header.Set("OK-ACCESS-PASSPHRASE", c.passphrase)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return rest.ClassifyTransport(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: HTTP 429", ports.ErrRateLimited)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: HTTP %d", ports.ErrAuthenticationFailed, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("%w: HTTP %d", ports.ErrExchangeUnavailable, resp.StatusCode)
		}

		var env struct {
			Code string          `json:"code"`
			Msg  string          `json:"msg"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("decoding response: %w: %w", ports.ErrUnknown, err)
		}
		if env.Code != "0" {
			switch env.Code {
			case "50011": // requests too frequent
				return fmt.Errorf("%w: %s (code %s)", ports.ErrRateLimited, env.Msg, env.Code)
			case "50111", "50113", "50114": // invalid key / signature / passphrase
				return fmt.Errorf("%w: %s (code %s)", ports.ErrAuthenticationFailed, env.Msg, env.Code)
			default:
				return fmt.Errorf("%w: %s (code %s)", ports.ErrExchangeRejected, env.Msg, env.Code)
			}
		}

		payload = env.Data
		return nil
	})
	return payload, err
}

// Ping checks connectivity via the public time endpoint, then validates the
// credentials with one signed balance query.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v5/public/time", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rest.ClassifyTransport(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ports.ErrExchangeUnavailable, resp.StatusCode)
	}

	if _, err := c.get(ctx, "account/balance", url.Values{}); err != nil {
		return err
	}
	c.logger.Info(ctx, "OKX account verified")
	return nil
}

// FetchDayTrades returns all fills for the symbol on the given calendar day.
// The symbol is translated to OKX's dash notation for the request and
// reported back in the caller's notation.
func (c *Client) FetchDayTrades(ctx context.Context, symbol string, day time.Time) ([]domain.Trade, error) {
	op := "FetchDayTrades"
	startMs, endMs := domain.DayWindow(day)
	requested := strings.ToUpper(symbol)
	instID := ToInstrumentID(requested)

	params := url.Values{}
	params.Set("instId", instID)
	params.Set("begin", strconv.FormatInt(startMs, 10))
	params.Set("end", strconv.FormatInt(endMs, 10))
	params.Set("limit", strconv.Itoa(pageLimit))

	raw, err := c.get(ctx, "trade/fills", params)
	if err != nil {
		return nil, err
	}

	var fills []fill
	if err := json.Unmarshal(raw, &fills); err != nil {
		return nil, fmt.Errorf("decoding fills: %w: %w", ports.ErrUnknown, err)
	}

	trades := make([]domain.Trade, 0, len(fills))
	for i := range fills {
		trades = append(trades, translateFill(&fills[i], requested))
	}
	c.logger.Debug(ctx, op+" completed", map[string]interface{}{
		"symbol": requested,
		"instId": instID,
		"day":    day.Format("2006-01-02"),
		"count":  len(trades),
	})
	return trades, nil
}
