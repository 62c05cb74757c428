package backtest

import "math"

// RollingVolatility computes the annualized rolling standard deviation of
// period returns over the given window. The first defined entry is at index
// `window` (the return at index 0 is itself undefined). barsPerYear reflects
// the sampling frequency and scales the per-period deviation by its square
// root.
func RollingVolatility(closes []float64, window int, barsPerYear float64) []float64 {
	returns := PercentChange(closes)
	vol := rollingStdDev(returns, window)
	scale := math.Sqrt(barsPerYear)
	for i := range vol {
		vol[i] *= scale
	}
	return vol
}

// AllocationSizes converts a volatility series into a per-bar capital
// allocation, inversely proportional to the bar's volatility and normalized
// against the peak volatility observed up to that bar. The result is scaled
// by baseFraction of initialCapital. Entries are NaN while volatility is
// undefined and +Inf where volatility is zero; callers must treat both as
// unusable rather than defaulting them.
func AllocationSizes(vol []float64, initialCapital, baseFraction float64) []float64 {
	out := make([]float64, len(vol))
	trailingMax := math.NaN()
	for i, v := range vol {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		if math.IsNaN(trailingMax) || v > trailingMax {
			trailingMax = v
		}
		// v == 0 yields +Inf here, surfaced to the caller as degenerate.
		out[i] = initialCapital * baseFraction * (1 / v) / trailingMax
	}
	return out
}

// usableAllocation reports whether an allocation value can fund a trade.
func usableAllocation(a float64) bool {
	return !math.IsNaN(a) && !math.IsInf(a, 0) && a > 0
}
