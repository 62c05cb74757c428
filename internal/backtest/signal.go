package backtest

import "crossbt/internal/domain"

// Signals detects crossovers between the short and long rolling means and
// emits one signal per bar. A buy is emitted when the short mean crosses
// strictly above the long mean between consecutive bars, a sell when it
// crosses strictly below. Bars where either mean is undefined, and bars
// where the means touch without crossing, are holds. Both inequalities must
// be strict: equality at either bar is never a crossing.
func Signals(smaShort, smaLong []float64) []domain.Signal {
	n := len(smaShort)
	if len(smaLong) < n {
		n = len(smaLong)
	}
	out := make([]domain.Signal, n)
	for i := 1; i < n; i++ {
		// NaN comparisons are false, so undefined means fall through to hold.
		switch {
		case smaShort[i] > smaLong[i] && smaShort[i-1] < smaLong[i-1]:
			out[i] = domain.SignalBuy
		case smaShort[i] < smaLong[i] && smaShort[i-1] > smaLong[i-1]:
			out[i] = domain.SignalSell
		}
	}
	return out
}
