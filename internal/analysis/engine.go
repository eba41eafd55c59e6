// Package analysis computes weighted averages, commission totals and a
// simple matched-quantity profit estimate over a set of trades.
package analysis

import (
	"sort"
	"time"

	"github.com/LvisWang/binance-accounting/internal/domain"
)

// SideStats aggregates the trades of one side (buy or sell).
type SideStats struct {
	Count             int
	AvgPrice          float64 // quantity-weighted: sum(price*qty) / sum(qty)
	TotalQty          float64
	TotalAmount       float64 // sum of quote amounts as reported by the exchange
	CommissionByAsset map[string]float64
}

// ProfitStats estimates profit over the matched quantity. The matched
// quantity is the smaller of the two side totals; unmatched inventory is
// ignored.
type ProfitStats struct {
	PriceDiff        float64 // sell average minus buy average
	TotalProfit      float64 // PriceDiff * MinQty
	ProfitPercentage float64 // PriceDiff / buy average * 100
	MinQty           float64
}

// Result is the full breakdown for one set of trades.
type Result struct {
	TotalCount             int
	BuyCount               int
	SellCount              int
	Accounts               []string // distinct, sorted
	Buy                    *SideStats
	Sell                   *SideStats
	TotalCommissionByAsset map[string]float64
	Profit                 *ProfitStats // nil unless both sides are present
}

// Analyze computes the breakdown for the given trades. Returns nil when the
// slice is empty.
func Analyze(trades []domain.Trade) *Result {
	if len(trades) == 0 {
		return nil
	}

	var buys, sells []domain.Trade
	accountSet := make(map[string]struct{})
	for _, tr := range trades {
		if tr.IsBuyer {
			buys = append(buys, tr)
		} else {
			sells = append(sells, tr)
		}
		if tr.AccountName != "" {
			accountSet[tr.AccountName] = struct{}{}
		}
	}

	accounts := make([]string, 0, len(accountSet))
	for name := range accountSet {
		accounts = append(accounts, name)
	}
	sort.Strings(accounts)

	res := &Result{
		TotalCount:             len(trades),
		BuyCount:               len(buys),
		SellCount:              len(sells),
		Accounts:               accounts,
		TotalCommissionByAsset: make(map[string]float64),
	}

	if len(buys) > 0 {
		res.Buy = sideStats(buys)
		mergeCommissions(res.TotalCommissionByAsset, res.Buy.CommissionByAsset)
	}
	if len(sells) > 0 {
		res.Sell = sideStats(sells)
		mergeCommissions(res.TotalCommissionByAsset, res.Sell.CommissionByAsset)
	}

	if res.Buy != nil && res.Sell != nil && res.Buy.TotalQty > 0 {
		diff := res.Sell.AvgPrice - res.Buy.AvgPrice
		minQty := res.Buy.TotalQty
		if res.Sell.TotalQty < minQty {
			minQty = res.Sell.TotalQty
		}
		res.Profit = &ProfitStats{
			PriceDiff:        diff,
			TotalProfit:      diff * minQty,
			ProfitPercentage: diff / res.Buy.AvgPrice * 100,
			MinQty:           minQty,
		}
	}

	return res
}

func sideStats(trades []domain.Trade) *SideStats {
	s := &SideStats{
		Count:             len(trades),
		CommissionByAsset: make(map[string]float64),
	}
	// The average is weighted by price*qty, not by the reported quote
	// amount: exchanges may truncate quoteQty, which would pull the
	// average outside the traded price range.
	var weighted float64
	for _, tr := range trades {
		s.TotalQty += tr.Qty
		s.TotalAmount += tr.QuoteQty
		weighted += tr.Price * tr.Qty
		if tr.Commission != 0 {
			s.CommissionByAsset[tr.CommissionAsset] += tr.Commission
		}
	}
	if s.TotalQty > 0 {
		s.AvgPrice = weighted / s.TotalQty
	}
	return s
}

func mergeCommissions(dst, src map[string]float64) {
	for asset, amount := range src {
		dst[asset] += amount
	}
}

// Summary gives the cheap counts shown before the user picks trades to
// analyze.
type Summary struct {
	TotalCount      int
	BuyCount        int
	SellCount       int
	TotalCommission map[string]float64
	First           time.Time
	Last            time.Time
}

// Summarize reports counts, commission totals and the time span covered.
func Summarize(trades []domain.Trade) Summary {
	s := Summary{TotalCommission: make(map[string]float64)}
	for i, tr := range trades {
		s.TotalCount++
		if tr.IsBuyer {
			s.BuyCount++
		} else {
			s.SellCount++
		}
		if tr.Commission != 0 {
			s.TotalCommission[tr.CommissionAsset] += tr.Commission
		}
		at := tr.ExecutedAt()
		if i == 0 || at.Before(s.First) {
			s.First = at
		}
		if i == 0 || at.After(s.Last) {
			s.Last = at
		}
	}
	return s
}
