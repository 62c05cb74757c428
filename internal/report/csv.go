// Package report writes batch results to the boundary CSV format consumed
// by downstream analysis.
package report

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"crossbt/internal/domain"
)

// resultRow is the CSV schema of the metrics report. Metric cells are
// strings so that undefined values serialize as empty cells instead of the
// literal "NaN".
type resultRow struct {
	StockName            string `csv:"stock_name"`
	Bars                 int    `csv:"bars"`
	Trades               int    `csv:"trades"`
	AnnualizedReturn     string `csv:"annualized_return"`
	AnnualizedVolatility string `csv:"annualized_volatility"`
	SharpeRatio          string `csv:"sharpe_ratio"`
	MaxDrawdown          string `csv:"max_drawdown"`
	FinalPortfolioValue  string `csv:"final_portfolio_value"`
}

// WriteCSV writes one row per record to the CSV file at path, creating or
// truncating it.
func WriteCSV(path string, records []domain.PerformanceMetrics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	rows := make([]*resultRow, len(records))
	for i, m := range records {
		rows[i] = &resultRow{
			StockName:            m.Symbol,
			Bars:                 m.Bars,
			Trades:               m.Trades,
			AnnualizedReturn:     formatMetric(m.AnnualizedReturn),
			AnnualizedVolatility: formatMetric(m.AnnualizedVolatility),
			SharpeRatio:          formatMetric(m.SharpeRatio),
			MaxDrawdown:          formatMetric(m.MaxDrawdown),
			FinalPortfolioValue:  formatMetric(m.FinalPortfolioValue),
		}
	}

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// formatMetric renders a metric value, with undefined values as the empty
// cell.
func formatMetric(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
