package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"crossbt/internal/config"
	"crossbt/internal/ingest"
	"crossbt/internal/store"
	"crossbt/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (overrides config)")
	startDate := flag.String("start", "", "backfill start date, YYYY-MM-DD (overrides config)")
	flag.Parse()

	cfgPath := "config/crossbt.yaml"
	if p := os.Getenv("CROSSBT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	symbols := cfg.Fetch.Symbols
	if *symbolsFlag != "" {
		symbols = nil
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
	}
	start := cfg.Fetch.StartDate
	if *startDate != "" {
		start = *startDate
	}

	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("alpaca credentials missing: set ALPACA_API_KEY / ALPACA_API_SECRET")
	}

	ps := store.NewParquetStore(cfg.Storage.DataDir)

	gatherer := ingest.NewBarGatherer(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		ps,
		cfg.Fetch.Market,
		symbols,
		cfg.Fetch.TimeframeMin,
		start,
		cfg.Fetch.MaxWorkers,
		cfg.Fetch.RateLimitPerMin,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting bar backfill",
		"gatherer", gatherer.Name(), "market", cfg.Fetch.Market,
		"symbols", len(symbols), "start", start, "timeframeMin", cfg.Fetch.TimeframeMin)

	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("backfill error: %v", err)
	}
	logger.Info("backfill complete")
}
