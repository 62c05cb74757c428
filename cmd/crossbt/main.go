package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"crossbt/internal/backtest"
	"crossbt/internal/batch"
	"crossbt/internal/config"
	"crossbt/internal/dataset"
	"crossbt/internal/domain"
	"crossbt/internal/report"
	"crossbt/internal/store"
	"crossbt/internal/util"
)

func main() {
	csvPath := flag.String("csv", "", "dataset CSV path (overrides config; stock_name,timestamp,close)")
	outPath := flag.String("out", "", "results CSV path (overrides config)")
	sized := flag.Bool("sized", false, "run the volatility-sized portfolio variant")
	market := flag.String("market", "", "read bars from the bar store for this market instead of a CSV")
	startDate := flag.String("start", "", "bar store start date, YYYY-MM-DD")
	endDate := flag.String("end", "", "bar store end date, YYYY-MM-DD (default today)")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (default: all in the market)")
	workers := flag.Int("workers", 4, "parallel instrument workers")
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

	params := backtest.Params{
		ShortWindow:      cfg.Backtest.ShortWindow,
		LongWindow:       cfg.Backtest.LongWindow,
		VolatilityWindow: cfg.Backtest.VolatilityWindow,
		BarsPerYear:      cfg.Backtest.BarsPerYear,
		RiskFreeRate:     cfg.Backtest.RiskFreeRate,
		InitialCapital:   cfg.Backtest.InitialCapital,
		BaseAllocation:   cfg.Backtest.BaseAllocation,
	}
	useSized := *sized || cfg.Backtest.Sized

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var ds *dataset.Dataset
	switch {
	case *market != "":
		ds, err = loadFromBarStore(ctx, cfg, *market, *symbolsFlag, *startDate, *endDate)
		if err != nil {
			log.Fatalf("loading bars: %v", err)
		}
	default:
		path := *csvPath
		if path == "" {
			path = cfg.Storage.DatasetCSV
		}
		if path == "" {
			log.Fatal("no input: set -csv, storage.dataset_csv, or -market")
		}
		ds, err = dataset.LoadCSV(path)
		if err != nil {
			log.Fatalf("loading dataset %s: %v", path, err)
		}
	}
	if ds.Len() == 0 {
		log.Fatal("dataset is empty")
	}

	logger.Info("starting backtest",
		"instruments", len(ds.Symbols()), "bars", ds.Len(), "sized", useSized,
		"shortWindow", params.ShortWindow, "longWindow", params.LongWindow)

	records := batch.Run(ctx, ds, batch.Options{
		Params:     params,
		Sized:      useSized,
		MaxWorkers: *workers,
		Log:        logger,
	})

	printSummary(records)

	out := *outPath
	if out == "" {
		out = cfg.Storage.ResultsCSV
	}
	if out != "" {
		if err := report.WriteCSV(out, records); err != nil {
			log.Fatalf("writing report %s: %v", out, err)
		}
		logger.Info("report written", "path", out)
	}

	if cfg.Storage.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening result store: %v", err)
		}
		defer ss.Close()

		runID := newRunID(useSized)
		if err := ss.SaveRun(ctx, runID, records); err != nil {
			log.Fatalf("saving run: %v", err)
		}
		logger.Info("run saved", "run", runID, "db", cfg.Storage.SQLitePath)
	}
}

// loadFromBarStore reads the requested symbols out of the parquet store and
// assembles them into a dataset.
func loadFromBarStore(ctx context.Context, cfg *config.Config, market, symbolsFlag, startStr, endStr string) (*dataset.Dataset, error) {
	if startStr == "" {
		return nil, fmt.Errorf("-start is required with -market")
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q", startStr)
	}
	end := time.Now().UTC()
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q", endStr)
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	ps := store.NewParquetStore(cfg.Storage.DataDir)

	var symbols []string
	if symbolsFlag != "" {
		for _, s := range strings.Split(symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
	} else {
		symbols, err = ps.ListSymbols(ctx, market)
		if err != nil {
			return nil, err
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols in market %s under %s", market, cfg.Storage.DataDir)
	}

	var bars []domain.Bar
	for _, symbol := range symbols {
		sb, err := ps.ReadBars(ctx, symbol, market, start, end)
		if err != nil {
			return nil, fmt.Errorf("reading bars for %s: %w", symbol, err)
		}
		bars = append(bars, sb...)
	}
	return dataset.FromBars(bars), nil
}

func printSummary(records []domain.PerformanceMetrics) {
	fmt.Printf("%-12s %6s %7s %10s %10s %8s %8s\n",
		"SYMBOL", "BARS", "TRADES", "ANN.RET", "ANN.VOL", "SHARPE", "MAXDD")
	for _, r := range records {
		fmt.Printf("%-12s %6d %7d %9.2f%% %9.2f%% %8.2f %7.2f%%\n",
			r.Symbol, r.Bars, r.Trades,
			r.AnnualizedReturn*100, r.AnnualizedVolatility*100,
			r.SharpeRatio, r.MaxDrawdown*100)
	}
}

func newRunID(sized bool) string {
	variant := "simple"
	if sized {
		variant = "sized"
	}
	return fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102-150405"), variant)
}
