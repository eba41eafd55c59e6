package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/LvisWang/binance-accounting/config"
	"github.com/LvisWang/binance-accounting/internal/adapters/logger"
	"github.com/LvisWang/binance-accounting/internal/aggregator"
	"github.com/LvisWang/binance-accounting/internal/analysis"
	"github.com/LvisWang/binance-accounting/internal/domain"
	"github.com/LvisWang/binance-accounting/internal/ports"
	"github.com/LvisWang/binance-accounting/internal/report"
	"github.com/LvisWang/binance-accounting/internal/selection"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Register accounts. A failed registration skips that account only.
	agg, err := aggregator.New(aggregator.Config{Logger: appLogger, DayDelay: cfg.DayFetchDelay})
	if err != nil {
		fatal(ctx, appLogger, err, "Failed to initialize aggregator")
	}
	for _, acc := range cfg.Accounts {
		if err := agg.Register(ctx, acc); err != nil {
			appLogger.Error(ctx, err, "Skipping account", map[string]interface{}{"account": acc.Name})
			continue
		}
	}
	if len(agg.Names()) == 0 {
		fatal(ctx, appLogger, nil, "No account could be registered")
	}

	// 4. Fetch the range from every account
	trades, reports, err := agg.FetchAll(ctx, cfg.Symbol, cfg.StartDate, cfg.EndDate)
	if err != nil {
		fatal(ctx, appLogger, err, "Aggregated fetch failed")
	}
	for _, name := range agg.Names() {
		rep := reports[name]
		fields := map[string]interface{}{
			"account": name,
			"trades":  rep.Count,
			"success": rep.Success,
		}
		if len(rep.DegradedDays) > 0 {
			fields["failedDays"] = len(rep.DegradedDays)
		}
		if rep.Err != nil {
			fields["error"] = rep.Err.Error()
		}
		appLogger.Info(ctx, "account fetch report", fields)
	}

	summary := analysis.Summarize(trades)
	appLogger.Info(ctx, "fetch summary", map[string]interface{}{
		"total": summary.TotalCount,
		"buys":  summary.BuyCount,
		"sells": summary.SellCount,
	})
	if summary.TotalCount == 0 {
		appLogger.Info(ctx, "No trades found in the requested range, nothing to report")
		return
	}

	// 5. Pick the trades to analyze
	indices, err := selection.Parse(cfg.Selection, len(trades))
	if err != nil {
		fatal(ctx, appLogger, err, "Invalid SELECTION")
	}
	selected := make([]domain.Trade, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, trades[i])
	}

	res := analysis.Analyze(selected)

	// 6. Write the reports
	stamp := time.Now().Format("20060102_150405")
	tradesPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_trades_%s.csv", cfg.Symbol, stamp))
	jsonPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_trades_%s.json", cfg.Symbol, stamp))
	reportPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_analysis_report_%s.csv", cfg.Symbol, stamp))

	if err := writeFile(tradesPath, func(f *os.File) error {
		return report.WriteTradesCSV(f, trades)
	}); err != nil {
		fatal(ctx, appLogger, err, "Failed to write trades CSV")
	}
	if err := writeFile(jsonPath, func(f *os.File) error {
		return report.WriteTradesJSON(f, trades)
	}); err != nil {
		fatal(ctx, appLogger, err, "Failed to write trades JSON")
	}
	if err := writeFile(reportPath, func(f *os.File) error {
		return report.WriteAnalysisCSV(f, cfg.Symbol, res, selected, time.Now())
	}); err != nil {
		fatal(ctx, appLogger, err, "Failed to write analysis report")
	}

	appLogger.Info(ctx, "Reports written", map[string]interface{}{
		"trades":   tradesPath,
		"json":     jsonPath,
		"analysis": reportPath,
	})
}

// fatal logs through the application logger and exits; the stdlib log
// fallback is only for failures before the logger exists.
func fatal(ctx context.Context, l ports.Logger, err error, msg string) {
	l.Error(ctx, err, "FATAL: "+msg)
	os.Exit(1)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
