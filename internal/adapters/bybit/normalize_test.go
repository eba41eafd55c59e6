package bybit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateExecution_Idempotent(t *testing.T) {
	e := &execution{
		ExecID:      "e1",
		OrderID:     "o1",
		Side:        "Buy",
		ExecType:    "Trade",
		ExecPrice:   "1.5",
		ExecQty:     "4",
		ExecFee:     "0.006",
		FeeCurrency: "BNB",
		ExecTime:    "1700000000000",
	}

	first := translateExecution(e, "PNUTUSDT")
	second := translateExecution(e, "PNUTUSDT")
	assert.Equal(t, first, second)
}

func TestTranslateExecution_DerivesQuoteQty(t *testing.T) {
	e := &execution{ExecPrice: "0.25", ExecQty: "100", ExecTime: "1"}
	tr := translateExecution(e, "PNUTUSDT")
	assert.InEpsilon(t, 25.0, tr.QuoteQty, 1e-8)
}

func TestTranslateExecution_MakerMarker(t *testing.T) {
	maker := translateExecution(&execution{ExecType: "Trade"}, "X")
	assert.True(t, maker.IsMaker)

	taker := translateExecution(&execution{ExecType: "AdlTrade"}, "X")
	assert.False(t, taker.IsMaker)
}

func TestTranslateExecution_Defaults(t *testing.T) {
	tr := translateExecution(&execution{}, "PNUTUSDT")
	assert.Equal(t, "PNUTUSDT", tr.Symbol)
	assert.Equal(t, "USDT", tr.CommissionAsset)
	assert.Zero(t, tr.Price)
	assert.Zero(t, tr.Qty)
	assert.Zero(t, tr.Time)
	assert.False(t, tr.IsBuyer)
}

func TestTranslateExecution_SideCase(t *testing.T) {
	assert.True(t, translateExecution(&execution{Side: "buy"}, "X").IsBuyer)
	assert.True(t, translateExecution(&execution{Side: "Buy"}, "X").IsBuyer)
	assert.False(t, translateExecution(&execution{Side: "Sell"}, "X").IsBuyer)
}
