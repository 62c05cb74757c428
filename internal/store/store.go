// Package store defines storage interfaces for persisting and retrieving
// price bars and backtest result records, with Parquet and SQLite
// implementations.
package store

import (
	"context"
	"time"

	"crossbt/internal/domain"
)

// BarStore persists and retrieves intraday bar data.
type BarStore interface {
	// WriteBars persists a batch of bars under the given market.
	WriteBars(ctx context.Context, market string, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol and market within [start, end].
	ReadBars(ctx context.Context, symbol string, market string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market string) ([]string, error)
}

// ResultStore persists and retrieves backtest performance records, grouped
// into named runs.
type ResultStore interface {
	// SaveRun upserts every record of one batch run under runID.
	SaveRun(ctx context.Context, runID string, records []domain.PerformanceMetrics) error

	// ListRuns returns all known run IDs, most recent first.
	ListRuns(ctx context.Context) ([]string, error)

	// GetRun returns the records of one run in insertion order.
	GetRun(ctx context.Context, runID string) ([]domain.PerformanceMetrics, error)

	// GetRecord returns one instrument's record from a run. The boolean
	// reports whether the record exists.
	GetRecord(ctx context.Context, runID, symbol string) (domain.PerformanceMetrics, bool, error)
}
