package factors

import (
	"math"
	"testing"
)

func constSlice(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestVWAPDeviationNeutralOnShortSeries(t *testing.T) {
	got, err := VWAPDeviation([]float64{1}, []float64{1}, []float64{1}, []float64{1}, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("short series should be neutral, got %v", got)
	}
}

func TestVWAPDeviationAtVWAP(t *testing.T) {
	// Flat prices sit exactly at the VWAP.
	n := 20
	got, err := VWAPDeviation(constSlice(n, 100), constSlice(n, 100), constSlice(n, 100), constSlice(n, 1000), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("close at VWAP should score 0.5, got %v", got)
	}
}

func TestVWAPDeviationAboveVWAP(t *testing.T) {
	n := 20
	highs := constSlice(n, 100)
	lows := constSlice(n, 100)
	closes := constSlice(n, 100)
	closes[n-1] = 110
	got, err := VWAPDeviation(highs, lows, closes, constSlice(n, 1000), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got <= 0.5 {
		t.Fatalf("close above VWAP should score above 0.5, got %v", got)
	}
	if got > 1 {
		t.Fatalf("score out of range: %v", got)
	}
}

func TestVWAPDeviationBadWindow(t *testing.T) {
	if _, err := VWAPDeviation(nil, nil, nil, nil, 0); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestRealizedVolPercentileRising(t *testing.T) {
	// Calm returns followed by a violent window: the current window must
	// rank at or near the top.
	returns := constSlice(50, 0.001)
	for i := 40; i < 50; i++ {
		if i%2 == 0 {
			returns[i] = 0.05
		} else {
			returns[i] = -0.05
		}
	}
	got, err := RealizedVolPercentile(returns, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("most volatile window should rank 1.0, got %v", got)
	}
}

func TestRealizedVolPercentileNeutralShort(t *testing.T) {
	got, err := RealizedVolPercentile([]float64{0.01, 0.02}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("short series should be neutral, got %v", got)
	}
}

func TestVolumeTurnover(t *testing.T) {
	vols := constSlice(11, 1000)

	got, err := VolumeTurnover(vols, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("usual volume should score 0.5, got %v", got)
	}

	vols[10] = 2000
	hi, err := VolumeTurnover(vols, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hi <= 0.9 {
		t.Fatalf("double volume should score near 1, got %v", hi)
	}

	vols[10] = 500
	lo, err := VolumeTurnover(vols, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lo >= 0.1 {
		t.Fatalf("half volume should score near 0, got %v", lo)
	}
}

func TestVolumeTurnoverZeroAverage(t *testing.T) {
	vols := constSlice(11, 0)
	vols[10] = 100
	got, err := VolumeTurnover(vols, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("zero average volume should be neutral, got %v", got)
	}
}

func TestDrawdownIntensity(t *testing.T) {
	// 5% peak-to-trough drawdown scores 0.5 against the 10% saturation.
	prices := []float64{100, 105, 100, 99.75}
	got, err := DrawdownIntensity(prices, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("5%% drawdown should score 0.5, got %v", got)
	}

	// 20% drawdown saturates.
	deep := []float64{100, 80}
	got, err = DrawdownIntensity(deep, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("deep drawdown should saturate at 1, got %v", got)
	}
}

func TestDrawdownIntensityMonotone(t *testing.T) {
	rising := []float64{100, 101, 102, 103}
	got, err := DrawdownIntensity(rising, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("monotone rise has no drawdown, got %v", got)
	}
}

func TestLiquidityFloor(t *testing.T) {
	if LiquidityFloor(nil, 100) != 0 {
		t.Fatalf("no data should gate to 0")
	}
	if LiquidityFloor([]float64{50}, 100) != 0 {
		t.Fatalf("thin volume should gate to 0")
	}
	if LiquidityFloor([]float64{100}, 100) != 1 {
		t.Fatalf("volume at threshold should pass")
	}
}

func TestFibLevel(t *testing.T) {
	got := FibLevel(100, 200, 23.6)
	if math.Abs(got-123.6) > 1e-9 {
		t.Fatalf("fib 23.6 of [100,200] = %v, want 123.6", got)
	}
	if FibLevel(200, 100, 38.2) != 200 {
		t.Fatalf("degenerate range should return the low")
	}
	if FibLevel(100, 200, 0) != 100 || FibLevel(100, 200, 100) != 200 {
		t.Fatalf("fib endpoints wrong")
	}
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 0, 50})
	want := []float64{0.1, -1, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("returns[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if Returns([]float64{1}) != nil {
		t.Fatalf("single price has no returns")
	}
}
