// Package dataset loads multi-instrument price series from the boundary CSV
// format and splits them into per-instrument ordered bar sequences for the
// backtest engine. Rows are assumed time-sorted within each instrument; no
// calendar alignment is attempted.
package dataset

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"crossbt/internal/domain"
)

// row is the CSV schema of the historical dataset: one close observation per
// instrument per bar.
type row struct {
	StockName string  `csv:"stock_name"`
	Timestamp string  `csv:"timestamp"`
	Close     float64 `csv:"close"`
}

// timestampLayouts are tried in order when parsing the timestamp column.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Dataset holds per-instrument bar series, keyed by instrument name, with
// the instrument order preserved from first appearance in the input.
type Dataset struct {
	symbols []string
	series  map[string][]domain.Bar
}

// LoadCSV reads a multi-instrument dataset from the CSV at path.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	var rows []*row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}

	d := &Dataset{series: make(map[string][]domain.Bar)}
	for i, r := range rows {
		name := strings.TrimSpace(r.StockName)
		if name == "" {
			return nil, fmt.Errorf("row %d: empty stock_name", i+1)
		}
		ts, err := parseTimestamp(r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, seen := d.series[name]; !seen {
			d.symbols = append(d.symbols, name)
		}
		d.series[name] = append(d.series[name], domain.Bar{
			Symbol:    name,
			Timestamp: ts,
			Close:     r.Close,
		})
	}
	return d, nil
}

// FromBars builds a Dataset from already-grouped bars, preserving the order
// in which symbols first appear. Used when the input comes from the bar
// store instead of a CSV.
func FromBars(bars []domain.Bar) *Dataset {
	d := &Dataset{series: make(map[string][]domain.Bar)}
	for _, b := range bars {
		if _, seen := d.series[b.Symbol]; !seen {
			d.symbols = append(d.symbols, b.Symbol)
		}
		d.series[b.Symbol] = append(d.series[b.Symbol], b)
	}
	return d
}

// Symbols returns instrument names in first-appearance order.
func (d *Dataset) Symbols() []string {
	return d.symbols
}

// Bars returns the ordered series for one instrument; nil if unknown.
func (d *Dataset) Bars(symbol string) []domain.Bar {
	return d.series[symbol]
}

// Len returns the number of instruments.
func (d *Dataset) Len() int {
	return len(d.symbols)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
