// Package bybit adapts the Bybit v5 REST API to ports.ExchangeClient.
// Requests are signed with HMAC-SHA256 over timestamp + apiKey + recvWindow
// + the sorted encoded query; the signature travels in X-BAPI-* headers.
// Timestamps use a clock offset captured once against the server-time
// endpoint at construction and never recomputed afterwards.
package bybit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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
	baseURLProduction = "https://api.bybit.com"
	baseURLTestnet    = "https://api-testnet.bybit.com"

	// recvWindow is the request staleness tolerance in milliseconds.
	recvWindow = 20000

	// execution/list returns at most this many fills per request.
	pageLimit = 100
)

// Client implements ports.ExchangeClient for Bybit unified spot accounts.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
	policy     rest.Policy

	// clockOffset = server time - local time, captured once in New.
	// Read-only afterwards, safe for concurrent use.
	clockOffset time.Duration
}

// Config holds configuration specific to the Bybit adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
	Policy     *rest.Policy // optional; defaults to the uniform retry policy
	BaseURL    string       // optional override, used by tests
}

// New creates a new Bybit client adapter and synchronizes its clock against
// the server once. Time sync is best effort: when the probe fails the local
// clock is used and the recv window absorbs small drift.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for Bybit client", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: API key and secret are required", ports.ErrInvalidAPIKeys)
	}

	baseURL := baseURLProduction
	if cfg.UseTestnet {
		baseURL = baseURLTestnet
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	policy := rest.NewPolicy(cfg.Logger)
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: rest.DefaultRequestTimeout},
		logger:     cfg.Logger,
		policy:     policy,
	}
	c.syncServerTime(ctx)
	cfg.Logger.Info(ctx, "Bybit client configured", map[string]interface{}{
		"baseURL":     baseURL,
		"clockOffset": c.clockOffset.String(),
	})

	return c, nil
}

// syncServerTime captures the one-time clock offset from the public
// server-time endpoint.
func (c *Client) syncServerTime(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v5/market/time", nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "Bybit time sync failed, using local clock", map[string]interface{}{"error": err.Error()})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn(ctx, "Bybit time sync failed, using local clock", map[string]interface{}{"status": resp.StatusCode})
		return
	}

	var env struct {
		RetCode int `json:"retCode"`
		Result  struct {
			TimeSecond string `json:"timeSecond"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.RetCode != 0 {
		c.logger.Warn(ctx, "Bybit time sync failed, using local clock")
		return
	}
	seconds, err := strconv.ParseInt(env.Result.TimeSecond, 10, 64)
	if err != nil {
		return
	}
	serverMs := seconds * 1000
	localMs := time.Now().UnixMilli()
	c.clockOffset = time.Duration(serverMs-localMs) * time.Millisecond
}

func (c *Client) timestamp() string {
	return strconv.FormatInt(time.Now().Add(c.clockOffset).UnixMilli(), 10)
}

func (c *Client) sign(timestamp, paramStr string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(timestamp + c.apiKey + strconv.Itoa(recvWindow) + paramStr))
	return hex.EncodeToString(mac.Sum(nil))
}

// get issues one signed GET under the retry policy and returns the unwrapped
// result payload.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	op := "bybit " + endpoint
	var payload json.RawMessage

	err := c.policy.Do(ctx, op, func(ctx context.Context) error {
		ts := c.timestamp()
		paramStr := params.Encode() // url.Values encodes keys in sorted order

		reqURL := c.baseURL + "/" + endpoint
		if paramStr != "" {
			reqURL += "?" + paramStr
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
		}
		req.Header.Set("X-BAPI-API-KEY", c.apiKey)
		req.Header.Set("X-BAPI-SIGN", c.sign(ts, paramStr))
		req.Header.Set("X-BAPI-TIMESTAMP", ts)
		req.Header.Set("X-BAPI-RECV-WINDOW", strconv.Itoa(recvWindow))
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
			RetCode int             `json:"retCode"`
			RetMsg  string          `json:"retMsg"`
			Result  json.RawMessage `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("decoding response: %w: %w", ports.ErrUnknown, err)
		}
		if env.RetCode != 0 {
			switch env.RetCode {
			case 10003, 10004, 10005: // invalid key / signature / permission
				return fmt.Errorf("%w: %s (retCode %d)", ports.ErrAuthenticationFailed, env.RetMsg, env.RetCode)
			case 10006: // too many visits
				return fmt.Errorf("%w: %s (retCode %d)", ports.ErrRateLimited, env.RetMsg, env.RetCode)
			default:
				return fmt.Errorf("%w: %s (retCode %d)", ports.ErrExchangeRejected, env.RetMsg, env.RetCode)
			}
		}

		payload = env.Result
		return nil
	})
	return payload, err
}

// Ping checks connectivity via the public time endpoint, then validates the
// credentials with one signed balance query.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v5/market/time", nil)
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

	params := url.Values{}
	params.Set("accountType", "UNIFIED")
	params.Set("coin", "USDT")
	if _, err := c.get(ctx, "v5/asset/transfer/query-account-coins-balance", params); err != nil {
		return err
	}
	c.logger.Info(ctx, "Bybit account verified")
	return nil
}

// FetchDayTrades returns all spot executions for the symbol on the given
// calendar day.
func (c *Client) FetchDayTrades(ctx context.Context, symbol string, day time.Time) ([]domain.Trade, error) {
	op := "FetchDayTrades"
	startMs, endMs := domain.DayWindow(day)
	requested := strings.ToUpper(symbol)

	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", requested)
	params.Set("startTime", strconv.FormatInt(startMs, 10))
	params.Set("endTime", strconv.FormatInt(endMs, 10))
	params.Set("limit", strconv.Itoa(pageLimit))

	raw, err := c.get(ctx, "v5/execution/list", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		List []execution `json:"list"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding execution list: %w: %w", ports.ErrUnknown, err)
	}

	trades := make([]domain.Trade, 0, len(result.List))
	for i := range result.List {
		trades = append(trades, translateExecution(&result.List[i], requested))
	}
	c.logger.Debug(ctx, op+" completed", map[string]interface{}{
		"symbol": requested,
		"day":    day.Format("2006-01-02"),
		"count":  len(trades),
	})
	return trades, nil
}
