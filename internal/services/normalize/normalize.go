package normalize

import (
	"errors"
	"math"
	"sort"
)

// Domain errors surfaced when safe mode is off. Callers with a documented
// neutral fallback resolve these locally instead of propagating.
var (
	ErrInsufficientData = errors.New("normalize: insufficient data")
	ErrZeroVariance     = errors.New("normalize: zero variance")
	ErrBadWindow        = errors.New("normalize: window must be positive")
)

// zClamp bounds z-scores for numerical stability.
const zClamp = 3.0

// ZScore converts values to (x - mean) / std per element, clamped to ±3.
// Fewer than two elements or zero variance yields all zeros when safe is
// true, and ErrInsufficientData / ErrZeroVariance otherwise. The returned
// slice always has len(values) when err is nil.
func ZScore(values []float64, safe bool) ([]float64, error) {
	n := len(values)
	if n < 2 {
		if safe {
			return make([]float64, n), nil
		}
		return nil, ErrInsufficientData
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	variance := ss / float64(n-1)
	if variance == 0 {
		if safe {
			return make([]float64, n), nil
		}
		return nil, ErrZeroVariance
	}
	std := math.Sqrt(variance)

	out := make([]float64, n)
	for i, v := range values {
		z := (v - mean) / std
		if z > zClamp {
			z = zClamp
		} else if z < -zClamp {
			z = -zClamp
		}
		out[i] = z
	}
	return out, nil
}

// PercentileRank maps each element to its rank among all elements divided
// by n-1, yielding values in [0, 1]. A single element ranks 0.5; empty
// input yields an empty result. Tied values receive independent ranks in
// stable sort order rather than an averaged rank.
func PercentileRank(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{0.5}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	out := make([]float64, n)
	for pos, i := range idx {
		out[i] = float64(pos) / float64(n-1)
	}
	return out
}

// RollingMinMax normalizes each element against the min/max of the trailing
// window ending at it, clipping the window to available history at the
// start of the series. A flat window emits 0.5.
func RollingMinMax(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrBadWindow
	}

	out := make([]float64, len(values))
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		mn, mx := values[lo], values[lo]
		for j := lo + 1; j <= i; j++ {
			if values[j] < mn {
				mn = values[j]
			}
			if values[j] > mx {
				mx = values[j]
			}
		}
		if mx == mn {
			out[i] = 0.5
			continue
		}
		out[i] = (values[i] - mn) / (mx - mn)
	}
	return out, nil
}

// Clamp01 bounds v to the unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp0100 bounds v to [0, 100].
func Clamp0100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
