package factors

import (
	"fmt"
	"math"

	"UnslugCity/internal/services/normalize"
)

// neutral is the factor returned whenever a lookback requirement is unmet.
// Data insufficiency is never an error here: downstream aggregation must
// always receive a valid factor set.
const neutral = 0.5

// vwapScalePct scales close-vs-VWAP deviation; roughly 2% of VWAP counts
// as one deviation unit.
const vwapScalePct = 0.02

// vwapScaleFloor keeps the deviation denominator away from zero.
const vwapScaleFloor = 1e-9

// turnoverSteepness is the logistic steepness for the volume-turnover
// transform, centered at ratio 1.
const turnoverSteepness = 5.0

// drawdownSaturation is the relative drawdown at which the intensity
// factor saturates at 1.0.
const drawdownSaturation = 0.10

// ConfigError reports an invalid static parameter such as a non-positive
// window. It is always raised immediately, never silently corrected.
type ConfigError struct {
	Param string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("factors: %s: %s", e.Param, e.Msg)
}

func badWindow(param string) *ConfigError {
	return &ConfigError{Param: param, Msg: "window must be positive"}
}

// VWAPDeviation maps the latest close's deviation from the trailing
// volume-weighted average of typical price (H+L+C)/3 onto [0, 1]:
// three scale units below the VWAP maps to 0, at the VWAP to 0.5, three
// above to 1.
func VWAPDeviation(highs, lows, closes, volumes []float64, lookback int) (float64, error) {
	if lookback <= 0 {
		return 0, badWindow("vwap_lookback")
	}
	n := len(closes)
	if n < lookback || len(highs) < lookback || len(lows) < lookback || len(volumes) < lookback {
		return neutral, nil
	}

	var pv, vsum float64
	for i := n - lookback; i < n; i++ {
		typical := (highs[i] + lows[i] + closes[i]) / 3.0
		pv += typical * volumes[i]
		vsum += volumes[i]
	}
	if vsum == 0 {
		return neutral, nil
	}
	vwap := pv / vsum

	scale := vwapScalePct*math.Abs(vwap) + vwapScaleFloor
	dev := (closes[n-1] - vwap) / scale
	if dev > 3 {
		dev = 3
	} else if dev < -3 {
		dev = -3
	}
	return normalize.Clamp01(0.5 + dev/6.0), nil
}

// RealizedVolPercentile ranks the most recent window's return volatility
// against all trailing windows of the same size: the fraction of window
// volatilities less than or equal to the current one.
func RealizedVolPercentile(returns []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, badWindow("vol_window")
	}
	if len(returns) < window {
		return neutral, nil
	}

	nwin := len(returns) - window + 1
	vols := make([]float64, nwin)
	for w := 0; w < nwin; w++ {
		vols[w] = stddev(returns[w : w+window])
	}

	current := vols[nwin-1]
	count := 0
	for _, v := range vols {
		if v <= current {
			count++
		}
	}
	return normalize.Clamp01(float64(count) / float64(nwin)), nil
}

// VolumeTurnover passes the ratio of the latest volume to the average of
// the preceding lookback volumes through a logistic transform, so half
// the usual volume scores near 0, usual volume 0.5, and double near 1.
func VolumeTurnover(volumes []float64, lookback int) (float64, error) {
	if lookback <= 0 {
		return 0, badWindow("turnover_lookback")
	}
	n := len(volumes)
	if n < lookback+1 {
		return neutral, nil
	}

	sum := 0.0
	for i := n - 1 - lookback; i < n-1; i++ {
		sum += volumes[i]
	}
	avg := sum / float64(lookback)
	if avg == 0 {
		return neutral, nil
	}

	ratio := volumes[n-1] / avg
	return normalize.Clamp01(1.0 / (1.0 + math.Exp(-turnoverSteepness*(ratio-1.0)))), nil
}

// DrawdownIntensity maps the largest peak-to-trough relative decline over
// the trailing window onto [0, 1], saturating at a 10% drawdown.
func DrawdownIntensity(prices []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, badWindow("drawdown_window")
	}
	n := len(prices)
	if n == 0 {
		return neutral, nil
	}
	lo := n - window
	if lo < 0 {
		lo = 0
	}

	peak := prices[lo]
	maxDD := 0.0
	for i := lo; i < n; i++ {
		if prices[i] > peak {
			peak = prices[i]
		}
		if peak > 0 {
			dd := (peak - prices[i]) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return normalize.Clamp01(maxDD / drawdownSaturation), nil
}

// LiquidityFloor is a binary gate: 1 when the latest volume clears the
// configured minimum, 0 otherwise (including the no-data case).
func LiquidityFloor(volumes []float64, minVolume float64) float64 {
	if len(volumes) == 0 {
		return 0.0
	}
	if volumes[len(volumes)-1] >= minVolume {
		return 1.0
	}
	return 0.0
}

// FibLevel computes the Fibonacci retracement level pct percent of the way
// up from low L to high H. The degenerate case H ≤ L returns L.
func FibLevel(low, high, pct float64) float64 {
	if high <= low {
		return low
	}
	return low + (high-low)*(pct/100.0)
}

// Returns converts a price series to simple per-step returns; a zero
// previous price contributes a zero return.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (prices[i]-prices[i-1])/prices[i-1])
	}
	return out
}

func stddev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	variance := ss / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
