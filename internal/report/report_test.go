package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LvisWang/binance-accounting/internal/analysis"
	"github.com/LvisWang/binance-accounting/internal/domain"
)

func sampleTrades() []domain.Trade {
	return []domain.Trade{
		{
			ID: "2", OrderID: "20", AccountName: "second", Symbol: "PNUTUSDT",
			Time: 1736985700000, IsBuyer: false, IsMaker: true,
			Price: 0.30, Qty: 10, QuoteQty: 3.0, Commission: 0.003, CommissionAsset: "USDT",
		},
		{
			ID: "1", OrderID: "10", AccountName: "main", Symbol: "PNUTUSDT",
			Time: 1736985600000, IsBuyer: true, IsMaker: false,
			Price: 0.25, Qty: 10, QuoteQty: 2.5, Commission: 0.01, CommissionAsset: "PNUT",
		},
	}
}

func TestWriteTradesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, sampleTrades()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Trade ID", records[0][0])

	// Rows come out time-sorted even though the input is not.
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "2", records[2][0])

	assert.Equal(t, "main", records[1][2])
	assert.Equal(t, "BUY", records[1][5])
	assert.Equal(t, "0.250000", records[1][6])
	assert.Equal(t, "10.000000", records[1][7])
	assert.Equal(t, "2.50", records[1][8])
	assert.Equal(t, "0.01000000", records[1][9])
	assert.Equal(t, "PNUT", records[1][10])
	assert.Equal(t, "taker", records[1][11])
	assert.Equal(t, "maker", records[2][11])
	assert.Equal(t, "1736985600000", records[1][12])
}

func TestWriteTradesCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1) // header only
}

func TestWriteAnalysisCSV(t *testing.T) {
	trades := sampleTrades()
	res := analysis.Analyze(trades)
	require.NotNil(t, res)

	var buf bytes.Buffer
	now := time.Date(2025, 1, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, WriteAnalysisCSV(&buf, "PNUTUSDT", res, trades, now))

	out := buf.String()
	assert.Contains(t, out, "Trade Analysis Report")
	assert.Contains(t, out, "Symbol:,PNUTUSDT")
	assert.Contains(t, out, "Selected trades:,2")
	assert.Contains(t, out, "Average buy price:,0.250000")
	assert.Contains(t, out, "Average sell price:,0.300000")
	assert.Contains(t, out, "Total buy amount:,2.50")
	assert.Contains(t, out, "Total commission (PNUT):,0.01000000")
	assert.Contains(t, out, "Total commission (USDT):,0.00300000")
	assert.Contains(t, out, "Price difference:,0.050000")
	assert.Contains(t, out, "Profit percentage:,+20.00%")
	assert.Contains(t, out, "Matched quantity:,10.000000")
	assert.Contains(t, out, "=== Selected Trades ===")

	// Detail rows are time-sorted.
	assert.Less(t, strings.Index(out, "\n1,10,"), strings.Index(out, "\n2,20,"))
}

func TestWriteAnalysisCSV_NilResult(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAnalysisCSV(&buf, "PNUTUSDT", nil, nil, time.Now())
	require.Error(t, err)
}

func TestWriteAnalysisCSV_BuyOnlySkipsProfit(t *testing.T) {
	trades := []domain.Trade{sampleTrades()[1]} // the buy
	res := analysis.Analyze(trades)

	var buf bytes.Buffer
	require.NoError(t, WriteAnalysisCSV(&buf, "PNUTUSDT", res, trades, time.Now()))
	assert.NotContains(t, buf.String(), "=== Profit Analysis ===")
}

func TestWriteTradesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesJSON(&buf, sampleTrades()))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, "1", decoded[0]["id"])
	assert.Equal(t, "main", decoded[0]["account"])
	assert.Equal(t, true, decoded[0]["isBuyer"])
	assert.Equal(t, "2", decoded[1]["id"])
}
