package okx

import "strings"

// OKX names spot instruments with a dash between base and quote currency
// (BTC-USDT) while the rest of the exchanges use the concatenated form
// (BTCUSDT). The split point is found by matching against known currencies.

var baseCurrencies = []string{
	"BTC", "ETH", "BNB", "ADA", "XRP", "DOT", "UNI", "LINK", "LTC", "BCH",
	"SOL", "MATIC", "AVAX", "ATOM", "NEAR", "FTM", "ALGO", "XLM", "ICP",
	"HBAR", "VET", "MANA", "SAND", "AXS", "THETA", "EGLD", "EOS", "AAVE",
	"MKR", "COMP", "SUSHI", "YFI", "SNX", "CRV", "BAL", "REN", "KNC",
	"PNUT", "DOGE", "SHIB", "PEPE", "FLOKI", "BONK",
}

var quoteCurrencies = []string{"USDT", "USDC", "BTC", "ETH", "BNB"}

// ToInstrumentID converts a concatenated symbol like BTCUSDT into the OKX
// instrument ID BTC-USDT. Symbols that do not match a known base/quote pair
// are returned unchanged.
func ToInstrumentID(symbol string) string {
	upper := strings.ToUpper(symbol)
	for _, base := range baseCurrencies {
		for _, quote := range quoteCurrencies {
			if upper == base+quote {
				return base + "-" + quote
			}
		}
	}
	return symbol
}
