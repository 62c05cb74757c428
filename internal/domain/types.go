// Package domain defines the value types shared across the crossbt
// packages: price bars, trading signals, and backtest performance records.
package domain

import "time"

// Market identifies which exchange calendar a series belongs to.
const (
	MarketUS = "us"
	MarketIN = "in"
)

// Bar is a single OHLCV observation for one instrument. The backtest core
// only requires Symbol, Timestamp, and Close; the remaining fields are
// carried for storage and acquisition.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Signal is a discrete trading instruction derived from a crossover.
type Signal int

const (
	SignalSell Signal = -1
	SignalHold Signal = 0
	SignalBuy  Signal = 1
)

// Position is the simple-variant holding state.
type Position int

const (
	PositionFlat Position = 0
	PositionLong Position = 1
)

// PerformanceMetrics is the durable output of one backtest run: one record
// per instrument. Metric fields are NaN when the run could not produce a
// defined value (short series, degenerate volatility); they are never
// silently zeroed.
type PerformanceMetrics struct {
	Symbol               string
	Bars                 int
	Trades               int
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
	// FinalPortfolioValue is set by the sized (portfolio) variant only;
	// NaN for the simple variant.
	FinalPortfolioValue float64
}
