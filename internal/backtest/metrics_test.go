package backtest

import (
	"math"
	"testing"

	"crossbt/internal/domain"
)

func TestPercentChange(t *testing.T) {
	got := PercentChange([]float64{100, 110, 99})
	if !math.IsNaN(got[0]) {
		t.Errorf("PercentChange[0] = %v, want NaN", got[0])
	}
	if math.Abs(got[1]-0.10) > 1e-12 {
		t.Errorf("PercentChange[1] = %v, want 0.10", got[1])
	}
	if math.Abs(got[2]-(-0.10)) > 1e-12 {
		t.Errorf("PercentChange[2] = %v, want -0.10", got[2])
	}
}

func TestPercentChangeZeroPrior(t *testing.T) {
	got := PercentChange([]float64{0, 10})
	if !math.IsNaN(got[1]) {
		t.Errorf("PercentChange over a zero prior value = %v, want NaN", got[1])
	}
}

func TestStrategyReturnsLagPosition(t *testing.T) {
	returns := []float64{math.NaN(), 0.1, 0.2, -0.1}
	positions := []domain.Position{0, 1, 1, 0}

	got := StrategyReturns(returns, positions)
	if !math.IsNaN(got[0]) {
		t.Errorf("StrategyReturns[0] = %v, want NaN", got[0])
	}
	// Position was flat at bar 0, so bar 1's return is not earned.
	if got[1] != 0 {
		t.Errorf("StrategyReturns[1] = %v, want 0 (entered this bar, not before)", got[1])
	}
	if got[2] != 0.2 {
		t.Errorf("StrategyReturns[2] = %v, want 0.2", got[2])
	}
	// Held at the end of bar 2, so bar 3's decline is still earned.
	if got[3] != -0.1 {
		t.Errorf("StrategyReturns[3] = %v, want -0.1", got[3])
	}
}

func TestCumulativeReturns(t *testing.T) {
	got := CumulativeReturns([]float64{math.NaN(), 0.1, -0.5})
	if !math.IsNaN(got[0]) {
		t.Errorf("CumulativeReturns[0] = %v, want NaN", got[0])
	}
	if math.Abs(got[1]-1.1) > 1e-12 {
		t.Errorf("CumulativeReturns[1] = %v, want 1.1", got[1])
	}
	if math.Abs(got[2]-0.55) > 1e-12 {
		t.Errorf("CumulativeReturns[2] = %v, want 0.55", got[2])
	}
}

func TestMaxDrawdownBound(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"non-decreasing", []float64{1, 1, 2, 3}, 0},
		{"single dip", []float64{1, 2, 1, 3}, -0.5},
		{"monotonic decline", []float64{4, 2, 1}, -0.75},
		{"leading NaN skipped", []float64{math.NaN(), 2, 1}, -0.5},
	}
	for _, tc := range cases {
		got := MaxDrawdown(tc.values)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%s: MaxDrawdown = %v, want %v", tc.name, got, tc.want)
		}
		if got > 0 {
			t.Errorf("%s: MaxDrawdown = %v, must never be positive", tc.name, got)
		}
	}
}

func TestMaxDrawdownUndefinedSeries(t *testing.T) {
	if got := MaxDrawdown([]float64{math.NaN(), math.NaN()}); !math.IsNaN(got) {
		t.Errorf("MaxDrawdown of all-NaN series = %v, want NaN", got)
	}
}

func TestComputeMetricsConstantGrowth(t *testing.T) {
	// Every period returns 1%, 10 periods, 20 bars per year:
	// annualized return must be (1.01)^20 - 1 regardless of series length.
	returns := make([]float64, 10)
	values := make([]float64, 10)
	v := 1.0
	for i := range returns {
		returns[i] = 0.01
		v *= 1.01
		values[i] = v
	}

	annReturn, annVol, sharpe, maxDD := computeMetrics(returns, values, 20, 0.06)

	want := math.Pow(1.01, 20) - 1
	if math.Abs(annReturn-want) > 1e-12 {
		t.Errorf("annualized return = %v, want %v", annReturn, want)
	}
	if annVol != 0 {
		t.Errorf("annualized volatility = %v, want 0 for constant returns", annVol)
	}
	// Zero volatility leaves the Sharpe ratio undefined, never infinite.
	if !math.IsNaN(sharpe) {
		t.Errorf("sharpe = %v, want NaN for zero volatility", sharpe)
	}
	if maxDD != 0 {
		t.Errorf("max drawdown = %v, want 0 for a rising value series", maxDD)
	}
}

func TestComputeMetricsSharpe(t *testing.T) {
	returns := []float64{0.02, -0.01, 0.03, -0.02, 0.01}
	values := CumulativeReturns(returns)

	annReturn, annVol, sharpe, _ := computeMetrics(returns, values, 252, 0.06)
	if math.IsNaN(annReturn) || math.IsNaN(annVol) || annVol <= 0 {
		t.Fatalf("expected defined metrics, got return %v vol %v", annReturn, annVol)
	}
	want := (annReturn - 0.06) / annVol
	if math.Abs(sharpe-want) > 1e-12 {
		t.Errorf("sharpe = %v, want %v", sharpe, want)
	}
}

func TestComputeMetricsEmptyReturns(t *testing.T) {
	annReturn, annVol, sharpe, maxDD := computeMetrics(nil, nil, 252, 0.06)
	for name, v := range map[string]float64{
		"annualized return":     annReturn,
		"annualized volatility": annVol,
		"sharpe":                sharpe,
		"max drawdown":          maxDD,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v, want NaN for an empty return series", name, v)
		}
	}
}

func TestComputeMetricsDropsUndefinedReturns(t *testing.T) {
	returns := []float64{math.NaN(), 0.01, 0.01}
	values := []float64{math.NaN(), 1.01, 1.0201}

	annReturn, _, _, _ := computeMetrics(returns, values, 4, 0)
	// Two defined returns of 1% over 4 bars/year: (1.01^2)^(4/2) - 1.
	want := math.Pow(1.01, 4) - 1
	if math.Abs(annReturn-want) > 1e-12 {
		t.Errorf("annualized return = %v, want %v", annReturn, want)
	}
}
