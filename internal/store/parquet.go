package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"crossbt/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*ParquetStore)(nil)

// ParquetStore implements BarStore using Parquet files on disk, one file per
// symbol and year.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// BarRecord is the Parquet schema for intraday bar data.
type BarRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     int64   `parquet:"volume"`
	TradeCount int64   `parquet:"trade_count"`
	VWAP       float64 `parquet:"vwap"`
}

// WriteBars writes bar data to Parquet files organized by symbol and year:
//
//	<DataDir>/<market>/bars/<SYMBOL>/<YYYY>.parquet
//
// Existing records are merged in, deduplicated by timestamp with new records
// winning, so re-fetching a range is idempotent.
func (s *ParquetStore) WriteBars(_ context.Context, market string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		k := key{symbol: b.Symbol, year: b.Timestamp.Year()}
		groups[k] = append(groups[k], BarRecord{
			Symbol:     b.Symbol,
			Timestamp:  b.Timestamp.UnixMilli(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     b.Volume,
			TradeCount: b.TradeCount,
			VWAP:       b.VWAP,
		})
	}

	for k, records := range groups {
		path := s.barPath(k.symbol, market, k.year)

		existing, _ := readParquetFile[BarRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadBars reads bar data for the given symbol and time range, ordered by
// timestamp.
func (s *ParquetStore) ReadBars(_ context.Context, symbol string, market string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	for year := start.Year(); year <= end.Year(); year++ {
		path := s.barPath(symbol, market, year)

		records, err := readParquetFile[BarRecord](path)
		if err != nil {
			// File doesn't exist for this year — skip.
			continue
		}

		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp)
			if (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end)) {
				bars = append(bars, domain.Bar{
					Symbol:     r.Symbol,
					Timestamp:  ts,
					Open:       r.Open,
					High:       r.High,
					Low:        r.Low,
					Close:      r.Close,
					Volume:     r.Volume,
					TradeCount: r.TradeCount,
					VWAP:       r.VWAP,
				})
			}
		}
	}
	return bars, nil
}

// ListSymbols lists all symbols that have bar data in the given market.
func (s *ParquetStore) ListSymbols(_ context.Context, market string) ([]string, error) {
	dir := filepath.Join(s.DataDir, market, "bars")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// barPath returns the filesystem path for a bar Parquet file.
func (s *ParquetStore) barPath(symbol, market string, year int) string {
	return filepath.Join(s.DataDir, market, "bars", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates bar records by (symbol, timestamp), preferring
// new records over existing ones. Results are sorted by timestamp.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
