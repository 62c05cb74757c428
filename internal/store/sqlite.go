package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"crossbt/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

// SQLiteStore implements ResultStore backed by a SQLite database. Undefined
// (NaN) metric values are stored as NULL; SQLite has no NaN and silently
// coercing to zero would fabricate a result.
type SQLiteStore struct {
	db *sql.DB
}

const resultSchema = `
CREATE TABLE IF NOT EXISTS results (
	run_id                TEXT    NOT NULL,
	symbol                TEXT    NOT NULL,
	bars                  INTEGER NOT NULL,
	trades                INTEGER NOT NULL,
	annualized_return     REAL,
	annualized_volatility REAL,
	sharpe_ratio          REAL,
	max_drawdown          REAL,
	final_portfolio_value REAL,
	created_at            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	seq                   INTEGER NOT NULL,
	PRIMARY KEY (run_id, symbol)
);
CREATE INDEX IF NOT EXISTS idx_results_run ON results (run_id, seq);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(resultSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun upserts every record of one batch run under runID, preserving the
// batch order via the seq column.
func (s *SQLiteStore) SaveRun(ctx context.Context, runID string, records []domain.PerformanceMetrics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (
			run_id, symbol, bars, trades,
			annualized_return, annualized_volatility, sharpe_ratio,
			max_drawdown, final_portfolio_value, seq
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, symbol) DO UPDATE SET
			bars = excluded.bars,
			trades = excluded.trades,
			annualized_return = excluded.annualized_return,
			annualized_volatility = excluded.annualized_volatility,
			sharpe_ratio = excluded.sharpe_ratio,
			max_drawdown = excluded.max_drawdown,
			final_portfolio_value = excluded.final_portfolio_value,
			seq = excluded.seq`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range records {
		_, err := stmt.ExecContext(ctx,
			runID, m.Symbol, m.Bars, m.Trades,
			nullableFloat(m.AnnualizedReturn),
			nullableFloat(m.AnnualizedVolatility),
			nullableFloat(m.SharpeRatio),
			nullableFloat(m.MaxDrawdown),
			nullableFloat(m.FinalPortfolioValue),
			i,
		)
		if err != nil {
			return fmt.Errorf("saving record %s/%s: %w", runID, m.Symbol, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns all known run IDs, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id FROM results
		GROUP BY run_id
		ORDER BY MAX(created_at) DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

// GetRun returns the records of one run in their original batch order.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) ([]domain.PerformanceMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, bars, trades,
		       annualized_return, annualized_volatility, sharpe_ratio,
		       max_drawdown, final_portfolio_value
		FROM results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PerformanceMetrics
	for rows.Next() {
		m, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

// GetRecord returns one instrument's record from a run.
func (s *SQLiteStore) GetRecord(ctx context.Context, runID, symbol string) (domain.PerformanceMetrics, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT symbol, bars, trades,
		       annualized_return, annualized_volatility, sharpe_ratio,
		       max_drawdown, final_portfolio_value
		FROM results WHERE run_id = ? AND symbol = ?`, runID, symbol)

	m, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return domain.PerformanceMetrics{}, false, nil
	}
	if err != nil {
		return domain.PerformanceMetrics{}, false, err
	}
	return m, true, nil
}

func scanRecord(scan func(dest ...any) error) (domain.PerformanceMetrics, error) {
	var m domain.PerformanceMetrics
	var annReturn, annVol, sharpe, maxDD, finalValue sql.NullFloat64
	err := scan(&m.Symbol, &m.Bars, &m.Trades, &annReturn, &annVol, &sharpe, &maxDD, &finalValue)
	if err != nil {
		return m, err
	}
	m.AnnualizedReturn = floatOrNaN(annReturn)
	m.AnnualizedVolatility = floatOrNaN(annVol)
	m.SharpeRatio = floatOrNaN(sharpe)
	m.MaxDrawdown = floatOrNaN(maxDD)
	m.FinalPortfolioValue = floatOrNaN(finalValue)
	return m, nil
}

func nullableFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
