// Command probe verifies that every configured account can reach its
// exchange and that its credentials are accepted, without fetching any
// history.
package main

import (
	"context"
	"flag"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"time"

	"github.com/LvisWang/binance-accounting/config"
	"github.com/LvisWang/binance-accounting/internal/adapters/logger"
	"github.com/LvisWang/binance-accounting/internal/aggregator"
)

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "overall probe deadline")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	agg, err := aggregator.New(aggregator.Config{Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize aggregator: %v", err)
	}

	failed := 0
	for _, acc := range cfg.Accounts {
		// Register probes the account as a side effect.
		if err := agg.Register(ctx, acc); err != nil {
			appLogger.Error(ctx, err, "probe failed", map[string]interface{}{"account": acc.Name})
			failed++
			continue
		}
		appLogger.Info(ctx, "probe succeeded", map[string]interface{}{
			"account":  acc.Name,
			"exchange": string(acc.Exchange),
		})
	}

	if failed > 0 {
		log.Fatalf("FATAL: %d of %d accounts failed the probe", failed, len(cfg.Accounts))
	}
	appLogger.Info(ctx, "all accounts verified", map[string]interface{}{"accounts": len(cfg.Accounts)})
}
