package backtest

import (
	"math"

	"crossbt/internal/domain"
)

// Params holds every input the engine needs. Nothing here has an implicit
// value inside the core: the annualization constant in particular is domain
// configuration, not a property of the algorithm.
type Params struct {
	ShortWindow      int
	LongWindow       int
	VolatilityWindow int
	BarsPerYear      float64
	RiskFreeRate     float64
	InitialCapital   float64
	BaseAllocation   float64
}

// DefaultParams returns the reference configuration: 20/50 windows on
// 15-minute bars of the Indian market (245 trading days x 25 bars), a 6%
// risk-free rate, and a 10% base allocation of 100000 initial capital.
func DefaultParams() Params {
	return Params{
		ShortWindow:      20,
		LongWindow:       50,
		VolatilityWindow: 20,
		BarsPerYear:      245 * 25,
		RiskFreeRate:     0.06,
		InitialCapital:   100000,
		BaseAllocation:   0.10,
	}
}

// undefinedMetrics is the degraded record for a run that could not produce
// defined numbers. The symbol and bar count are still reported so batch
// output keeps one row per instrument.
func undefinedMetrics(symbol string, bars int) domain.PerformanceMetrics {
	nan := math.NaN()
	return domain.PerformanceMetrics{
		Symbol:               symbol,
		Bars:                 bars,
		AnnualizedReturn:     nan,
		AnnualizedVolatility: nan,
		SharpeRatio:          nan,
		MaxDrawdown:          nan,
		FinalPortfolioValue:  nan,
	}
}

// closePrices extracts the close series the whole engine operates on.
func closePrices(bars []domain.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Run executes the simple always-in/always-out variant for one instrument:
// crossover signals fold into a binary position, strategy returns are the
// instrument returns gated by the previous bar's position, and drawdown is
// measured on the cumulative strategy return curve.
//
// A series shorter than the long window cannot define either average, so the
// run degrades to a record with NaN metric fields instead of failing; batch
// runs over many instruments must not be aborted by one short series.
func Run(symbol string, bars []domain.Bar, p Params) domain.PerformanceMetrics {
	if len(bars) < p.LongWindow {
		return undefinedMetrics(symbol, len(bars))
	}

	closes := closePrices(bars)
	smaShort := RollingMean(closes, p.ShortWindow)
	smaLong := RollingMean(closes, p.LongWindow)
	signals := Signals(smaShort, smaLong)
	positions := Positions(signals)

	returns := StrategyReturns(PercentChange(closes), positions)
	cumulative := CumulativeReturns(returns)

	annReturn, annVol, sharpe, maxDD := computeMetrics(returns, cumulative, p.BarsPerYear, p.RiskFreeRate)

	return domain.PerformanceMetrics{
		Symbol:               symbol,
		Bars:                 len(bars),
		Trades:               countTrades(signals, positions),
		AnnualizedReturn:     annReturn,
		AnnualizedVolatility: annVol,
		SharpeRatio:          sharpe,
		MaxDrawdown:          maxDD,
		FinalPortfolioValue:  math.NaN(),
	}
}

// RunSized executes the enhanced variant: buys are funded by the
// volatility-scaled allocation (capped at available cash) instead of the
// full cash balance, and metrics are measured on the simulated portfolio
// value.
//
// The error is non-nil only for a degenerate volatility at a buy bar; the
// returned record is then the degraded NaN record, so callers can log the
// cause and still keep one row for the instrument.
func RunSized(symbol string, bars []domain.Bar, p Params) (domain.PerformanceMetrics, error) {
	if len(bars) < p.LongWindow {
		return undefinedMetrics(symbol, len(bars)), nil
	}

	closes := closePrices(bars)
	smaShort := RollingMean(closes, p.ShortWindow)
	smaLong := RollingMean(closes, p.LongWindow)
	signals := Signals(smaShort, smaLong)

	vol := RollingVolatility(closes, p.VolatilityWindow, p.BarsPerYear)
	alloc := AllocationSizes(vol, p.InitialCapital, p.BaseAllocation)

	state, err := Simulate(closes, signals, p.InitialCapital, alloc)
	if err != nil {
		return undefinedMetrics(symbol, len(bars)), err
	}

	returns := PercentChange(state.Value)
	annReturn, annVol, sharpe, maxDD := computeMetrics(returns, state.Value, p.BarsPerYear, p.RiskFreeRate)

	return domain.PerformanceMetrics{
		Symbol:               symbol,
		Bars:                 len(bars),
		Trades:               state.Trades,
		AnnualizedReturn:     annReturn,
		AnnualizedVolatility: annVol,
		SharpeRatio:          sharpe,
		MaxDrawdown:          maxDD,
		FinalPortfolioValue:  state.Value[len(state.Value)-1],
	}, nil
}

// countTrades counts position transitions for the simple variant: a buy that
// opened a position or a sell that closed one.
func countTrades(signals []domain.Signal, positions []domain.Position) int {
	trades := 0
	for i := 1; i < len(positions); i++ {
		if positions[i] != positions[i-1] && signals[i] != domain.SignalHold {
			trades++
		}
	}
	return trades
}
