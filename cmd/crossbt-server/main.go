package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crossbt/internal/backtest"
	"crossbt/internal/config"
	"crossbt/internal/httpapi"
	"crossbt/internal/store"
	"crossbt/internal/util"
)

func main() {
	cfgPath := "config/crossbt.yaml"
	if p := os.Getenv("CROSSBT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Storage.SQLitePath == "" {
		log.Fatal("storage.sqlite_path is required for the server")
	}
	results, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening result store: %v", err)
	}
	defer results.Close()

	var bars store.BarStore
	if cfg.Storage.DataDir != "" {
		bars = store.NewParquetStore(cfg.Storage.DataDir)
	}

	params := backtest.Params{
		ShortWindow:      cfg.Backtest.ShortWindow,
		LongWindow:       cfg.Backtest.LongWindow,
		VolatilityWindow: cfg.Backtest.VolatilityWindow,
		BarsPerYear:      cfg.Backtest.BarsPerYear,
		RiskFreeRate:     cfg.Backtest.RiskFreeRate,
		InitialCapital:   cfg.Backtest.InitialCapital,
		BaseAllocation:   cfg.Backtest.BaseAllocation,
	}

	srv := httpapi.NewServer(results, bars, params, cfg.Fetch.MaxWorkers, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
