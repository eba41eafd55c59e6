package okx

import (
	"strconv"
	"strings"

	"github.com/LvisWang/binance-accounting/internal/domain"
)

// fill mirrors one entry of the /api/v5/trade/fills data array. Every field
// is a string on the wire.
type fill struct {
	TradeID  string `json:"tradeId"`
	OrderID  string `json:"ordId"`
	Side     string `json:"side"`
	ExecType string `json:"execType"`
	FillPx   string `json:"fillPx"`
	FillSz   string `json:"fillSz"`
	Fee      string `json:"fee"`
	FeeCcy   string `json:"feeCcy"`
	Ts       string `json:"ts"`
}

// translateFill converts an OKX fill into the canonical trade form. The
// execType marker is "M" for maker fills and "T" for taker fills. Fees are
// reported as negative amounts, so the absolute value is kept. The quote
// amount is not on the wire and is derived as price times quantity.
func translateFill(f *fill, requestedSymbol string) domain.Trade {
	price := parseFloat(f.FillPx)
	qty := parseFloat(f.FillSz)

	commission := parseFloat(f.Fee)
	if commission < 0 {
		commission = -commission
	}

	feeAsset := f.FeeCcy
	if feeAsset == "" {
		feeAsset = "USDT"
	}

	ts, _ := strconv.ParseInt(f.Ts, 10, 64)

	return domain.Trade{
		ID:              f.TradeID,
		OrderID:         f.OrderID,
		Symbol:          requestedSymbol,
		Time:            ts,
		IsBuyer:         strings.EqualFold(f.Side, "buy"),
		IsMaker:         f.ExecType == "M",
		Price:           price,
		Qty:             qty,
		QuoteQty:        price * qty,
		Commission:      commission,
		CommissionAsset: feeAsset,
	}
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
