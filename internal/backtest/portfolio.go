package backtest

import (
	"errors"
	"fmt"
	"math"

	"crossbt/internal/domain"
)

// ErrDegenerateVolatility is returned by the sized simulation when a buy
// signal arrives while the volatility-derived allocation is undefined, zero,
// or infinite. The condition is fatal for that instrument's run; it is never
// coerced to a numeric allocation.
var ErrDegenerateVolatility = errors.New("degenerate volatility: allocation undefined")

// PortfolioState holds the per-bar capital ledger produced by Simulate.
// Every series is fully defined from the first bar onward: Value[i] is
// always Cash[i] + Invested[i], and Invested carries forward on bars with
// no executed trade.
type PortfolioState struct {
	Cash     []float64
	Invested []float64
	Value    []float64
	Trades   int
}

// Simulate steps through the signal sequence maintaining running cash
// (seeded with initialCapital) and invested capital (seeded with zero).
//
// On a buy the allocation is spent at the bar's close: the full available
// cash when alloc is nil, otherwise the bar's sized allocation capped at
// available cash. A buy whose cost exceeds cash, or whose allocation rounds
// to nothing, is a skipped trade rather than an error. On a sell the prior
// bar's invested capital is returned to cash. Holds forward-fill the
// invested amount.
//
// With a non-nil alloc, a buy bar whose allocation is undefined aborts the
// run with ErrDegenerateVolatility.
func Simulate(closes []float64, signals []domain.Signal, initialCapital float64, alloc []float64) (PortfolioState, error) {
	n := len(closes)
	st := PortfolioState{
		Cash:     make([]float64, n),
		Invested: make([]float64, n),
		Value:    make([]float64, n),
	}
	if n == 0 {
		return st, nil
	}

	cash := initialCapital
	st.Cash[0] = cash
	st.Invested[0] = 0
	st.Value[0] = cash

	for i := 1; i < n; i++ {
		invested := st.Invested[i-1]

		switch signals[i] {
		case domain.SignalBuy:
			spend := cash
			if alloc != nil {
				a := alloc[i]
				if !usableAllocation(a) {
					return st, fmt.Errorf("bar %d: %w", i, ErrDegenerateVolatility)
				}
				spend = math.Min(a, cash)
			}
			if spend > 0 && spend <= cash && closes[i] > 0 {
				shares := spend / closes[i]
				cost := shares * closes[i]
				cash -= cost
				invested = cost
				st.Trades++
			}
			// Otherwise the trade is skipped and invested carries forward.

		case domain.SignalSell:
			cash += st.Invested[i-1]
			if st.Invested[i-1] > 0 {
				st.Trades++
			}
			invested = 0
		}

		st.Cash[i] = cash
		st.Invested[i] = invested
		st.Value[i] = cash + invested
	}
	return st, nil
}
