package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LvisWang/binance-accounting/internal/adapters/rest"
	"github.com/LvisWang/binance-accounting/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

const tradesBody = `[{
	"id": 28457,
	"orderId": 100234,
	"symbol": "PNUTUSDT",
	"price": "0.254800",
	"qty": "12.00000000",
	"quoteQty": "3.05760000",
	"commission": "0.00305760",
	"commissionAsset": "USDT",
	"time": 1736985600123,
	"isBuyer": true,
	"isMaker": false,
	"isBestMatch": true
}]`

func fastPolicy() *rest.Policy {
	return &rest.Policy{MaxRetries: 3, MinDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		APIKey:    "test-key",
		SecretKey: "test-secret",
		Logger:    &mockLogger{},
		Policy:    fastPolicy(),
		BaseURL:   srv.URL,
	})
	require.NoError(t, err)
	return c, srv
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{Logger: &mockLogger{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidAPIKeys)
}

func TestFetchDayTrades_SignsAndTranslates(t *testing.T) {
	var gotQuery, gotKey string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/myTrades", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-MBX-APIKEY")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tradesBody))
	}))

	day := time.Date(2025, 1, 16, 0, 0, 0, 0, time.Local)
	trades, err := c.FetchDayTrades(context.Background(), "pnutusdt", day)
	require.NoError(t, err)

	// Auth material is injected by the client, never by the caller.
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotQuery, "signature=")
	assert.Contains(t, gotQuery, "timestamp=")
	assert.Contains(t, gotQuery, "symbol=PNUTUSDT")
	assert.Contains(t, gotQuery, "limit=1000")

	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, "28457", tr.ID)
	assert.Equal(t, "100234", tr.OrderID)
	assert.Equal(t, "PNUTUSDT", tr.Symbol)
	assert.Equal(t, int64(1736985600123), tr.Time)
	assert.True(t, tr.IsBuyer)
	assert.False(t, tr.IsMaker)
	assert.InDelta(t, 0.2548, tr.Price, 1e-9)
	assert.InDelta(t, 12.0, tr.Qty, 1e-9)
	assert.InDelta(t, 3.0576, tr.QuoteQty, 1e-9)
	assert.InDelta(t, 0.0030576, tr.Commission, 1e-12)
	assert.Equal(t, "USDT", tr.CommissionAsset)
}

func TestFetchDayTrades_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"code":-1003,"msg":"Too many requests."}`))
			return
		}
		w.Write([]byte(tradesBody))
	}))

	trades, err := c.FetchDayTrades(context.Background(), "PNUTUSDT", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Len(t, trades, 1)
}

func TestFetchDayTrades_ApplicationErrorNotRetried(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))

	_, err := c.FetchDayTrades(context.Background(), "NOPEUSDT", time.Now())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "Invalid symbol")
}

func TestFetchDayTrades_StaleTimestampNotRetried(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1021,"msg":"Timestamp for this request is outside of the recvWindow."}`))
	}))

	_, err := c.FetchDayTrades(context.Background(), "PNUTUSDT", time.Now())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.ErrorIs(t, err, ports.ErrExchangeRejected)
}

func TestPing_ProbesPublicThenSigned(t *testing.T) {
	var paths []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/v3/ping":
			w.Write([]byte(`{}`))
		case "/api/v3/account":
			w.Write([]byte(`{"accountType":"SPOT","canTrade":true,"balances":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, []string{"/api/v3/ping", "/api/v3/account"}, paths)
}

func TestServerTime(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"serverTime":1736985600000}`))
	}))

	got, err := c.ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1736985600000), got.UnixMilli())
}

func TestPing_BadCredentials(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/ping" {
			w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":-2015,"msg":"Invalid API-key, IP, or permissions for action."}`))
	}))

	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidAPIKeys)
}
