package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"crossbt/internal/domain"
)

func TestParquetStoreRoundTrip(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2023, 6, 1, 9, 15, 0, 0, time.UTC)
	var bars []domain.Bar
	for i := 0; i < 5; i++ {
		bars = append(bars, domain.Bar{
			Symbol:    "RELIANCE",
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Close:     2400 + float64(i),
			Volume:    int64(1000 + i),
		})
	}

	if err := s.WriteBars(ctx, domain.MarketIN, bars); err != nil {
		t.Fatalf("WriteBars returned error: %v", err)
	}

	got, err := s.ReadBars(ctx, "RELIANCE", domain.MarketIN, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReadBars returned error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("ReadBars returned %d bars, want 5", len(got))
	}
	if got[0].Close != 2400 || got[4].Close != 2404 {
		t.Errorf("closes = %v/%v, want 2400/2404", got[0].Close, got[4].Close)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Errorf("bars not ordered at index %d", i)
		}
	}

	symbols, err := s.ListSymbols(ctx, domain.MarketIN)
	if err != nil {
		t.Fatalf("ListSymbols returned error: %v", err)
	}
	if len(symbols) != 1 || symbols[0] != "RELIANCE" {
		t.Errorf("ListSymbols = %v, want [RELIANCE]", symbols)
	}
}

func TestParquetStoreMergeIsIdempotent(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	ts := time.Date(2023, 6, 1, 9, 15, 0, 0, time.UTC)
	bar := domain.Bar{Symbol: "TCS", Timestamp: ts, Close: 3300}

	if err := s.WriteBars(ctx, domain.MarketIN, []domain.Bar{bar}); err != nil {
		t.Fatalf("first WriteBars: %v", err)
	}
	// Rewrite the same bar with a corrected close; the new record wins.
	bar.Close = 3301
	if err := s.WriteBars(ctx, domain.MarketIN, []domain.Bar{bar}); err != nil {
		t.Fatalf("second WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "TCS", domain.MarketIN, ts, ts)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d bars after rewrite, want 1", len(got))
	}
	if got[0].Close != 3301 {
		t.Errorf("Close = %v, want the rewritten 3301", got[0].Close)
	}
}

func TestParquetStoreMissingSymbol(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	got, err := s.ReadBars(context.Background(), "NONE", domain.MarketIN,
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars returned error for missing symbol: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d bars for missing symbol, want 0", len(got))
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	records := []domain.PerformanceMetrics{
		{
			Symbol: "RELIANCE", Bars: 6000, Trades: 14,
			AnnualizedReturn: 0.12, AnnualizedVolatility: 0.30,
			SharpeRatio: 0.2, MaxDrawdown: -0.25, FinalPortfolioValue: 112000,
		},
		{
			// Degraded record: every metric undefined.
			Symbol: "SHORTSERIES", Bars: 12,
			AnnualizedReturn: math.NaN(), AnnualizedVolatility: math.NaN(),
			SharpeRatio: math.NaN(), MaxDrawdown: math.NaN(), FinalPortfolioValue: math.NaN(),
		},
	}

	if err := s.SaveRun(ctx, "run-1", records); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetRun returned %d records, want 2", len(got))
	}
	if got[0].Symbol != "RELIANCE" || got[1].Symbol != "SHORTSERIES" {
		t.Errorf("order = %q,%q, want batch order preserved", got[0].Symbol, got[1].Symbol)
	}
	if got[0].SharpeRatio != 0.2 {
		t.Errorf("SharpeRatio = %v, want 0.2", got[0].SharpeRatio)
	}
	// NaN survives the NULL round trip as NaN, not zero.
	if !math.IsNaN(got[1].SharpeRatio) || !math.IsNaN(got[1].MaxDrawdown) {
		t.Errorf("degraded record came back defined: %+v", got[1])
	}

	rec, ok, err := s.GetRecord(ctx, "run-1", "RELIANCE")
	if err != nil || !ok {
		t.Fatalf("GetRecord: ok=%v err=%v", ok, err)
	}
	if rec.Trades != 14 {
		t.Errorf("Trades = %d, want 14", rec.Trades)
	}

	_, ok, err = s.GetRecord(ctx, "run-1", "MISSING")
	if err != nil {
		t.Fatalf("GetRecord missing: %v", err)
	}
	if ok {
		t.Error("GetRecord reported a missing record as present")
	}
}

func TestSQLiteStoreUpsertAndListRuns(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	rec := domain.PerformanceMetrics{Symbol: "INFY", Bars: 100, SharpeRatio: 0.1,
		AnnualizedReturn: 0.05, AnnualizedVolatility: 0.2, MaxDrawdown: -0.1,
		FinalPortfolioValue: math.NaN()}
	if err := s.SaveRun(ctx, "run-a", []domain.PerformanceMetrics{rec}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	// Re-saving the same run replaces, not duplicates.
	rec.Trades = 5
	if err := s.SaveRun(ctx, "run-a", []domain.PerformanceMetrics{rec}); err != nil {
		t.Fatalf("SaveRun upsert: %v", err)
	}
	got, err := s.GetRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got) != 1 || got[0].Trades != 5 {
		t.Errorf("after upsert got %d records (trades %d), want 1 record with 5 trades",
			len(got), got[0].Trades)
	}

	if err := s.SaveRun(ctx, "run-b", []domain.PerformanceMetrics{rec}); err != nil {
		t.Fatalf("SaveRun run-b: %v", err)
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("ListRuns = %v, want 2 runs", runs)
	}
}
