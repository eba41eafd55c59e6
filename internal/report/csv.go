// Package report renders trade lists and analysis breakdowns as CSV and
// JSON documents.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/LvisWang/binance-accounting/internal/analysis"
	"github.com/LvisWang/binance-accounting/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteTradesCSV writes one row per trade, sorted by execution time. Prices
// and quantities use six decimals, quote amounts two, commissions eight.
func WriteTradesCSV(w io.Writer, trades []domain.Trade) error {
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	cw := csv.NewWriter(w)
	header := []string{
		"Trade ID", "Order ID", "Account", "Symbol", "Time", "Side",
		"Price", "Quantity", "Quote Amount", "Commission", "Commission Asset", "Maker",
		"Timestamp (ms)",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, tr := range sorted {
		row := []string{
			tr.ID,
			tr.OrderID,
			tr.AccountName,
			tr.Symbol,
			tr.ExecutedAt().Format(timeLayout),
			sideLabel(tr.IsBuyer),
			fmt.Sprintf("%.6f", tr.Price),
			fmt.Sprintf("%.6f", tr.Qty),
			fmt.Sprintf("%.2f", tr.QuoteQty),
			fmt.Sprintf("%.8f", tr.Commission),
			tr.CommissionAsset,
			makerLabel(tr.IsMaker),
			strconv.FormatInt(tr.Time, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAnalysisCSV writes the full analysis report: a summary of both sides,
// commission totals per asset, the profit estimate and the selected trades
// themselves.
func WriteAnalysisCSV(w io.Writer, symbol string, res *analysis.Result, trades []domain.Trade, now time.Time) error {
	if res == nil {
		return fmt.Errorf("no analysis result to report")
	}

	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Trade Analysis Report"},
		{"Generated:", now.Format(timeLayout)},
		{"Symbol:", symbol},
		{""},
		{"=== Summary ==="},
		{"Selected trades:", fmt.Sprintf("%d", res.TotalCount)},
	}

	if res.Buy != nil {
		rows = append(rows,
			[]string{"Buy trades:", fmt.Sprintf("%d", res.Buy.Count)},
			[]string{"Average buy price:", fmt.Sprintf("%.6f", res.Buy.AvgPrice)},
			[]string{"Total buy quantity:", fmt.Sprintf("%.6f", res.Buy.TotalQty)},
			[]string{"Total buy amount:", fmt.Sprintf("%.2f", res.Buy.TotalAmount)},
			[]string{"Buy commissions:"},
		)
		rows = append(rows, commissionRows(res.Buy.CommissionByAsset)...)
	}
	if res.Sell != nil {
		rows = append(rows,
			[]string{"Sell trades:", fmt.Sprintf("%d", res.Sell.Count)},
			[]string{"Average sell price:", fmt.Sprintf("%.6f", res.Sell.AvgPrice)},
			[]string{"Total sell quantity:", fmt.Sprintf("%.6f", res.Sell.TotalQty)},
			[]string{"Total sell amount:", fmt.Sprintf("%.2f", res.Sell.TotalAmount)},
			[]string{"Sell commissions:"},
		)
		rows = append(rows, commissionRows(res.Sell.CommissionByAsset)...)
	}

	rows = append(rows, []string{""}, []string{"=== Commission Totals ==="})
	for _, asset := range sortedAssets(res.TotalCommissionByAsset) {
		rows = append(rows, []string{
			fmt.Sprintf("Total commission (%s):", asset),
			fmt.Sprintf("%.8f", res.TotalCommissionByAsset[asset]),
		})
	}

	if res.Profit != nil {
		rows = append(rows,
			[]string{""},
			[]string{"=== Profit Analysis ==="},
			[]string{"Price difference:", fmt.Sprintf("%.6f", res.Profit.PriceDiff)},
			[]string{"Profit on matched quantity:", fmt.Sprintf("%.2f", res.Profit.TotalProfit)},
			[]string{"Profit percentage:", fmt.Sprintf("%+.2f%%", res.Profit.ProfitPercentage)},
			[]string{"Matched quantity:", fmt.Sprintf("%.6f", res.Profit.MinQty)},
			[]string{"Note:", "commissions span multiple assets and are not netted into the profit figure"},
		)
	}

	rows = append(rows,
		[]string{""},
		[]string{"=== Selected Trades ==="},
		[]string{"Trade ID", "Order ID", "Account", "Time", "Side", "Price", "Quantity", "Quote Amount", "Commission", "Commission Asset"},
	)

	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	for _, tr := range sorted {
		rows = append(rows, []string{
			tr.ID,
			tr.OrderID,
			tr.AccountName,
			tr.ExecutedAt().Format(timeLayout),
			sideLabel(tr.IsBuyer),
			fmt.Sprintf("%.6f", tr.Price),
			fmt.Sprintf("%.6f", tr.Qty),
			fmt.Sprintf("%.2f", tr.QuoteQty),
			fmt.Sprintf("%.8f", tr.Commission),
			tr.CommissionAsset,
		})
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func commissionRows(byAsset map[string]float64) [][]string {
	var rows [][]string
	for _, asset := range sortedAssets(byAsset) {
		rows = append(rows, []string{"", fmt.Sprintf("%.8f %s", byAsset[asset], asset)})
	}
	return rows
}

func sortedAssets(byAsset map[string]float64) []string {
	assets := make([]string, 0, len(byAsset))
	for asset := range byAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

func sideLabel(isBuyer bool) string {
	if isBuyer {
		return "BUY"
	}
	return "SELL"
}

func makerLabel(isMaker bool) string {
	if isMaker {
		return "maker"
	}
	return "taker"
}
