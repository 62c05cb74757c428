package httpapi

import (
	"math"

	"crossbt/internal/domain"
)

// MetricsJSON is the wire shape of one performance record. Metric fields are
// pointers so that undefined (NaN) values serialize as null; encoding/json
// rejects NaN outright.
type MetricsJSON struct {
	Symbol               string   `json:"symbol"`
	Bars                 int      `json:"bars"`
	Trades               int      `json:"trades"`
	AnnualizedReturn     *float64 `json:"annualized_return"`
	AnnualizedVolatility *float64 `json:"annualized_volatility"`
	SharpeRatio          *float64 `json:"sharpe_ratio"`
	MaxDrawdown          *float64 `json:"max_drawdown"`
	FinalPortfolioValue  *float64 `json:"final_portfolio_value"`
}

// RunsResponse lists known run IDs.
type RunsResponse struct {
	Runs []string `json:"runs"`
}

// RunResponse holds one run's records.
type RunResponse struct {
	RunID   string        `json:"run_id"`
	Records []MetricsJSON `json:"records"`
}

// BacktestRequest asks the server to backtest stored bars on demand.
type BacktestRequest struct {
	Market  string   `json:"market"`
	Symbols []string `json:"symbols"`
	Start   string   `json:"start"` // YYYY-MM-DD
	End     string   `json:"end"`   // YYYY-MM-DD, defaults to today
	Sized   bool     `json:"sized"`
}

func toJSON(m domain.PerformanceMetrics) MetricsJSON {
	return MetricsJSON{
		Symbol:               m.Symbol,
		Bars:                 m.Bars,
		Trades:               m.Trades,
		AnnualizedReturn:     optional(m.AnnualizedReturn),
		AnnualizedVolatility: optional(m.AnnualizedVolatility),
		SharpeRatio:          optional(m.SharpeRatio),
		MaxDrawdown:          optional(m.MaxDrawdown),
		FinalPortfolioValue:  optional(m.FinalPortfolioValue),
	}
}

func toJSONList(records []domain.PerformanceMetrics) []MetricsJSON {
	out := make([]MetricsJSON, len(records))
	for i, m := range records {
		out[i] = toJSON(m)
	}
	return out
}

// optional maps NaN and infinities to null.
func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
