package domain

import "time"

// Trade is the canonical, exchange-agnostic fill record. All exchange
// idiosyncrasy (field names, envelope shapes, maker/taker markers) is
// resolved by the adapters before a Trade is emitted; nothing downstream
// ever sees a native exchange record.
type Trade struct {
	ID              string  `json:"id"`              // exchange-native trade ID, opaque, unique only per (exchange, account)
	OrderID         string  `json:"orderId"`         // originating order ID
	Symbol          string  `json:"symbol"`          // always the caller's requested notation, not the exchange's
	Time            int64   `json:"time"`            // execution time, milliseconds since epoch; primary sort key
	IsBuyer         bool    `json:"isBuyer"`         // true = buy/long fill
	IsMaker         bool    `json:"isMaker"`         // liquidity role
	Price           float64 `json:"price"`           // execution price
	Qty             float64 `json:"qty"`             // base-asset quantity
	QuoteQty        float64 `json:"quoteQty"`        // quote-asset notional; derived as Price*Qty when the exchange omits it
	Commission      float64 `json:"commission"`      // fee magnitude
	CommissionAsset string  `json:"commissionAsset"` // asset the fee is denominated in
	AccountName     string  `json:"account"`         // attached by the aggregator; empty on a raw fetched trade
}

// ExecutedAt returns the execution time as a time.Time.
func (t *Trade) ExecutedAt() time.Time {
	return time.UnixMilli(t.Time)
}

// DayWindow returns the millisecond timestamps bounding a calendar day:
// local midnight to local midnight plus 24h minus one second. The caller's
// local date is taken as-is, no timezone conversion.
func DayWindow(day time.Time) (startMs, endMs int64) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Second)
	return start.UnixMilli(), end.UnixMilli()
}
