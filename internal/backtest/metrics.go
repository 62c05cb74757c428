package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"crossbt/internal/domain"
)

// PercentChange derives period-over-period returns from a value series.
// Entry 0 is NaN (no prior value); entry i is values[i]/values[i-1] - 1.
// A zero prior value yields an undefined (NaN) return rather than ±Inf.
func PercentChange(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/values[i-1] - 1
	}
	return out
}

// StrategyReturns converts instrument returns into strategy returns for the
// simple variant: each period's return is earned only if the position was
// held at the end of the previous bar.
func StrategyReturns(returns []float64, positions []domain.Position) []float64 {
	out := make([]float64, len(returns))
	for i := range out {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = returns[i] * float64(positions[i-1])
	}
	return out
}

// CumulativeReturns computes the running product of (1+r). Undefined
// entries keep their position as NaN but do not contribute to the running
// product.
func CumulativeReturns(returns []float64) []float64 {
	out := make([]float64, len(returns))
	prod := 1.0
	for i, r := range returns {
		if math.IsNaN(r) {
			out[i] = math.NaN()
			continue
		}
		prod *= 1 + r
		out[i] = prod
	}
	return out
}

// MaxDrawdown returns the largest relative decline of the value series from
// its running prefix maximum: min over i of values[i]/runningMax[i] - 1.
// Undefined entries are skipped. The result is non-positive, and zero only
// when the defined portion of the series never declines; it is NaN when no
// entry is defined.
func MaxDrawdown(values []float64) float64 {
	runningMax := math.NaN()
	maxDD := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(runningMax) || v > runningMax {
			runningMax = v
		}
		dd := v/runningMax - 1
		if math.IsNaN(maxDD) || dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// computeMetrics reduces a period-return series and its corresponding value
// series into the four performance metrics. Both variants share this single
// reduction; they differ only in which series they supply (strategy returns
// over cumulative returns, or portfolio returns over portfolio value).
//
// Undefined leading returns are dropped before reduction. Degenerate inputs
// degrade individual fields to NaN: an empty return series leaves every
// field undefined, and a zero annualized volatility leaves the Sharpe ratio
// undefined.
func computeMetrics(returns, values []float64, barsPerYear, riskFreeRate float64) (annReturn, annVol, sharpe, maxDD float64) {
	clean := returns[:0:0]
	for _, r := range returns {
		if !math.IsNaN(r) {
			clean = append(clean, r)
		}
	}

	if len(clean) == 0 {
		nan := math.NaN()
		return nan, nan, nan, nan
	}

	growth := 1.0
	for _, r := range clean {
		growth *= 1 + r
	}
	annReturn = math.Pow(growth, barsPerYear/float64(len(clean))) - 1

	annVol = sampleStdDev(clean) * math.Sqrt(barsPerYear)

	if annVol == 0 || math.IsNaN(annVol) {
		sharpe = math.NaN()
	} else {
		sharpe = (annReturn - riskFreeRate) / annVol
	}

	maxDD = MaxDrawdown(values)
	return annReturn, annVol, sharpe, maxDD
}

// sampleStdDev is the unbiased (n-1) standard deviation. A single-element
// slice has no defined sample deviation and yields NaN.
func sampleStdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}
