// Package batch fans independent per-instrument backtests across a bounded
// worker pool and merges the records back in input order. Instrument runs
// share no state, so the only coordination is the work queue itself.
package batch

import (
	"context"
	"log/slog"
	"sync"

	"crossbt/internal/backtest"
	"crossbt/internal/dataset"
	"crossbt/internal/domain"
)

// Options configures a batch run.
type Options struct {
	Params     backtest.Params
	Sized      bool // sized portfolio variant instead of the simple variant
	MaxWorkers int  // defaults to 1 when unset
	Log        *slog.Logger
}

// Run executes one backtest per instrument in the dataset and returns one
// record per instrument, in the dataset's symbol order. Per-instrument
// degradation (short series, degenerate volatility) is logged and yields a
// NaN-field record; it never aborts the batch.
func Run(ctx context.Context, ds *dataset.Dataset, opts Options) []domain.PerformanceMetrics {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	symbols := ds.Symbols()
	results := make([]domain.PerformanceMetrics, len(symbols))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				symbol := symbols[idx]
				results[idx] = runOne(symbol, ds.Bars(symbol), opts, log)
			}
		}()
	}

	for idx := range symbols {
		select {
		case <-ctx.Done():
			// Remaining instruments keep their zero-value records; the
			// caller sees a truncated but well-formed result set.
			close(jobs)
			wg.Wait()
			return results
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func runOne(symbol string, bars []domain.Bar, opts Options, log *slog.Logger) domain.PerformanceMetrics {
	if !opts.Sized {
		m := backtest.Run(symbol, bars, opts.Params)
		if m.Bars < opts.Params.LongWindow {
			log.Warn("series shorter than long window, metrics undefined",
				"symbol", symbol, "bars", m.Bars, "longWindow", opts.Params.LongWindow)
		}
		return m
	}

	m, err := backtest.RunSized(symbol, bars, opts.Params)
	if err != nil {
		log.Warn("sized backtest degraded", "symbol", symbol, "error", err)
	}
	return m
}
