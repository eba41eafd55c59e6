package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/LvisWang/binance-accounting/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Accounts to aggregate, in the order they were declared.
	Accounts []domain.AccountConfig

	// Query parameters
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Selection string // which fetched trades to analyze, e.g. "all" or "1,3,5-8"

	// Fetch pacing
	DayFetchDelay time.Duration

	// Output
	OutputDir string

	// Logging
	LogLevel string
}

const dateLayout = "2006-01-02"

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	accounts, accErrs := parseAccounts(getEnv("ACCOUNTS", ""))
	cfg.Accounts = accounts
	errs = append(errs, accErrs...)
	if len(accounts) == 0 && len(accErrs) == 0 {
		errs = append(errs, "ACCOUNTS must declare at least one account")
	}

	cfg.Symbol = strings.ToUpper(getEnv("SYMBOL", ""))
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	// Default range: the last seven days including today.
	now := time.Now()
	defaultEnd := now.Format(dateLayout)
	defaultStart := now.AddDate(0, 0, -6).Format(dateLayout)

	var err error
	cfg.StartDate, err = time.ParseInLocation(dateLayout, getEnv("START_DATE", defaultStart), time.Local)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid START_DATE: %v", err))
	}
	cfg.EndDate, err = time.ParseInLocation(dateLayout, getEnv("END_DATE", defaultEnd), time.Local)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid END_DATE: %v", err))
	}
	if err == nil && cfg.EndDate.Before(cfg.StartDate) {
		errs = append(errs, "END_DATE must not be before START_DATE")
	}

	cfg.Selection = getEnv("SELECTION", "all")

	delayMs := getEnvAsInt("DAY_FETCH_DELAY_MS", 150)
	if delayMs < 0 {
		errs = append(errs, "DAY_FETCH_DELAY_MS cannot be negative")
	}
	cfg.DayFetchDelay = time.Duration(delayMs) * time.Millisecond

	cfg.OutputDir = getEnv("OUTPUT_DIR", ".")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// parseAccounts decodes the ACCOUNTS variable. Accounts are separated by
// semicolons; each is "name:exchange:key:secret[:passphrase][:testnet]".
// The colon is the field separator, so no value may contain one; an entry
// whose extra fields don't match the expected positions is rejected rather
// than silently shifted.
func parseAccounts(raw string) ([]domain.AccountConfig, []string) {
	var accounts []domain.AccountConfig
	var errs []string
	seen := make(map[string]struct{})

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 4 || len(parts) > 6 {
			errs = append(errs, fmt.Sprintf("account entry %q must have 4-6 colon-separated fields", entry))
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		kind, err := domain.ParseExchangeKind(parts[1])
		if err != nil {
			errs = append(errs, fmt.Sprintf("account %q: %v", parts[0], err))
			continue
		}

		acc := domain.AccountConfig{
			Name:      parts[0],
			Exchange:  kind,
			APIKey:    parts[2],
			SecretKey: parts[3],
		}
		// Optional trailing fields: a passphrase and/or the literal "testnet".
		switch len(parts) {
		case 5:
			if strings.EqualFold(parts[4], "testnet") {
				acc.UseTestnet = true
			} else {
				acc.Passphrase = parts[4]
			}
		case 6:
			if !strings.EqualFold(parts[5], "testnet") {
				errs = append(errs, fmt.Sprintf("account %q: sixth field must be \"testnet\", got %q (colons are not allowed inside field values)", parts[0], parts[5]))
				continue
			}
			acc.Passphrase = parts[4]
			acc.UseTestnet = true
		}

		if err := acc.Validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if _, dup := seen[acc.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate account name %q", acc.Name))
			continue
		}
		seen[acc.Name] = struct{}{}
		accounts = append(accounts, acc)
	}

	return accounts, errs
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
