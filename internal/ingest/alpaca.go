// Package ingest acquires historical intraday bars from the Alpaca
// market-data API and persists them into the bar store. It is the external
// data-acquisition collaborator of the backtest engine; the engine itself
// never performs I/O.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"crossbt/internal/domain"
	"crossbt/internal/store"
	"crossbt/internal/util"
)

// BarGatherer fetches intraday bars for an explicit symbol list and writes
// them to a BarStore.
type BarGatherer struct {
	client          *marketdata.Client
	store           store.BarStore
	market          string
	symbols         []string
	timeframeMin    int
	startDate       string
	maxWorkers      int
	rateLimitPerMin int
	log             *slog.Logger
}

// NewBarGatherer creates a BarGatherer configured with the given Alpaca
// credentials, target store, symbol list, and fetch parameters.
func NewBarGatherer(apiKey, apiSecret, dataURL string, s store.BarStore, market string, symbols []string, timeframeMin int, startDate string, maxWorkers, rateLimitPerMin int) *BarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &BarGatherer{
		client:          marketdata.NewClient(opts),
		store:           s,
		market:          market,
		symbols:         symbols,
		timeframeMin:    timeframeMin,
		startDate:       startDate,
		maxWorkers:      maxWorkers,
		rateLimitPerMin: rateLimitPerMin,
		log:             slog.Default().With("gatherer", "intraday-bars"),
	}
}

// Name returns the gatherer identifier.
func (g *BarGatherer) Name() string { return "intraday-bars" }

// Run fetches intraday bars for every configured symbol from the start date
// up to now and writes them to the store. Symbols are fetched concurrently
// under a shared rate limit; a symbol that keeps failing is logged and
// skipped so one bad symbol does not abort the acquisition.
func (g *BarGatherer) Run(ctx context.Context) error {
	if len(g.symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}
	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.startDate, err)
	}
	end := time.Now().UTC()

	limiter := util.NewRateLimiter(g.rateLimitPerMin)
	jobs := make(chan string)
	var fetched, failed atomic.Int64

	workers := g.maxWorkers
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				if err := g.fetchSymbol(ctx, limiter, symbol, start, end); err != nil {
					failed.Add(1)
					g.log.Warn("fetching symbol failed", "symbol", symbol, "error", err)
					continue
				}
				fetched.Add(1)
			}
		}()
	}

	for _, symbol := range g.symbols {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- symbol:
		}
	}
	close(jobs)
	wg.Wait()

	g.log.Info("complete", "fetched", fetched.Load(), "failed", failed.Load())
	return nil
}

// fetchSymbol pulls one symbol's bars and writes them through the store's
// merge-on-write path.
func (g *BarGatherer) fetchSymbol(ctx context.Context, limiter *util.RateLimiter, symbol string, start, end time.Time) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	var alpacaBars []marketdata.Bar
	err := util.Retry(ctx, 3, time.Second, func() error {
		var err error
		alpacaBars, err = g.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.NewTimeFrame(g.timeframeMin, marketdata.Min),
			Start:     start,
			End:       end,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("GetBars: %w", err)
	}
	if len(alpacaBars) == 0 {
		return nil
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:     strings.ToUpper(symbol),
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}
	return g.store.WriteBars(ctx, g.market, bars)
}
