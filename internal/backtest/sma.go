// Package backtest implements the dual moving-average crossover backtest
// engine: rolling means, crossover signals, position and capital simulation,
// and risk-adjusted performance metrics. Everything here is a pure,
// single-pass computation over an ordered close-price series; per-instrument
// runs share no state and the batch layer may run them concurrently.
package backtest

import "math"

// RollingMean computes the trailing simple moving average of values over the
// given window. Entry i is the arithmetic mean of values[i-window+1 .. i];
// entries before the window is fully populated are NaN. No look-ahead: only
// values at or before i contribute to entry i.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window < 1 {
		window = 1
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// rollingStdDev computes the trailing sample standard deviation of values
// over the given window. Entry i is NaN until the window holds `window`
// defined values; a NaN inside the window makes the result NaN, matching
// the undefined-propagates contract of RollingMean.
func rollingStdDev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sampleStdDev(values[i-window+1 : i+1])
	}
	return out
}
