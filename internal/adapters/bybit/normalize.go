package bybit

import (
	"strconv"
	"strings"

	"github.com/LvisWang/binance-accounting/internal/domain"
)

// execution is the native Bybit v5 spot fill record.
type execution struct {
	ExecID      string `json:"execId"`
	OrderID     string `json:"orderId"`
	Side        string `json:"side"`
	ExecType    string `json:"execType"`
	ExecPrice   string `json:"execPrice"`
	ExecQty     string `json:"execQty"`
	ExecFee     string `json:"execFee"`
	FeeCurrency string `json:"feeCurrency"`
	ExecTime    string `json:"execTime"`
}

// translateExecution maps a native Bybit execution onto the canonical trade
// record. Bybit does not report the quote notional, so it is derived from
// price*qty. The maker flag keys off Bybit's execType marker.
func translateExecution(e *execution, requestedSymbol string) domain.Trade {
	price := parseFloat(e.ExecPrice)
	qty := parseFloat(e.ExecQty)

	feeAsset := e.FeeCurrency
	if feeAsset == "" {
		feeAsset = "USDT"
	}

	ms, _ := strconv.ParseInt(e.ExecTime, 10, 64)

	return domain.Trade{
		ID:              e.ExecID,
		OrderID:         e.OrderID,
		Symbol:          requestedSymbol,
		Time:            ms,
		IsBuyer:         strings.EqualFold(e.Side, "Buy"),
		IsMaker:         e.ExecType == "Trade",
		Price:           price,
		Qty:             qty,
		QuoteQty:        price * qty,
		Commission:      parseFloat(e.ExecFee),
		CommissionAsset: feeAsset,
	}
}

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
