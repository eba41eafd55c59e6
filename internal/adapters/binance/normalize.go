package binance

import (
	"strconv"

	gobinance "github.com/adshao/go-binance/v2"

	"github.com/LvisWang/binance-accounting/internal/domain"
)

// translateTrade maps a native Binance fill onto the canonical trade record.
// Binance reports the quote notional directly; it is only derived from
// price*qty when the field is missing.
func translateTrade(t *gobinance.TradeV3, requestedSymbol string) domain.Trade {
	price := parseFloat(t.Price)
	qty := parseFloat(t.Quantity)
	quoteQty := parseFloat(t.QuoteQuantity)
	if t.QuoteQuantity == "" {
		quoteQty = price * qty
	}

	return domain.Trade{
		ID:              strconv.FormatInt(t.ID, 10),
		OrderID:         strconv.FormatInt(t.OrderID, 10),
		Symbol:          requestedSymbol,
		Time:            t.Time,
		IsBuyer:         t.IsBuyer,
		IsMaker:         t.IsMaker,
		Price:           price,
		Qty:             qty,
		QuoteQty:        quoteQty,
		Commission:      parseFloat(t.Commission),
		CommissionAsset: t.CommissionAsset,
	}
}

// parseFloat converts an exchange decimal string, treating missing or
// malformed values as zero the way the exporter always has.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
