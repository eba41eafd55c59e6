package domain

import (
	"fmt"
	"strings"
)

// ExchangeKind identifies which exchange an account talks to.
type ExchangeKind string

const (
	ExchangeBinance ExchangeKind = "binance"
	ExchangeBybit   ExchangeKind = "bybit"
	ExchangeOKX     ExchangeKind = "okx"
)

// ParseExchangeKind converts a string (case-insensitive) to an ExchangeKind.
func ParseExchangeKind(s string) (ExchangeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binance":
		return ExchangeBinance, nil
	case "bybit":
		return ExchangeBybit, nil
	case "okx":
		return ExchangeOKX, nil
	default:
		return "", fmt.Errorf("unknown exchange kind %q", s)
	}
}

// AccountConfig describes one registered exchange account. It is created by
// the caller, validated once via a connectivity probe at registration time,
// and held in memory only.
type AccountConfig struct {
	Name       string       // caller-chosen, unique within an aggregator
	Exchange   ExchangeKind // which adapter to build
	APIKey     string
	SecretKey  string
	Passphrase string // required by OKX only
	UseTestnet bool
}

// Validate checks the fields an adapter cannot be constructed without.
func (c AccountConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if c.APIKey == "" || c.SecretKey == "" {
		return fmt.Errorf("account %q: API key and secret must not be empty", c.Name)
	}
	if c.Exchange == ExchangeOKX && c.Passphrase == "" {
		return fmt.Errorf("account %q: OKX requires a passphrase", c.Name)
	}
	switch c.Exchange {
	case ExchangeBinance, ExchangeBybit, ExchangeOKX:
		return nil
	default:
		return fmt.Errorf("account %q: unknown exchange kind %q", c.Name, c.Exchange)
	}
}
