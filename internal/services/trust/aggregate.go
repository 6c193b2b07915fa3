package trust

import (
	"math"

	"UnslugCity/internal/services/normalize"
)

// Monotone aggregation strategies for combining normalized factors into a
// trust score. Every strategy is monotone: increasing any single factor
// while holding the rest fixed never decreases the aggregate. All are
// total over any non-empty factor set and return 0.5 for an empty one.

// Method selects an aggregation strategy by name.
type Method string

const (
	MethodGeometric     Method = "geometric_mean"
	MethodHarmonic      Method = "harmonic_mean"
	MethodArithmetic    Method = "arithmetic_mean"
	MethodCapped        Method = "capped_mean"
	MethodWeighted      Method = "weighted_mean"
	MethodLogisticBlend Method = "logistic_blend"
	MethodMinMeanHybrid Method = "min_mean_hybrid"
)

// IsValidMethod reports whether m names a supported strategy.
func IsValidMethod(m Method) bool {
	switch m {
	case MethodGeometric, MethodHarmonic, MethodArithmetic, MethodCapped,
		MethodWeighted, MethodLogisticBlend, MethodMinMeanHybrid:
		return true
	default:
		return false
	}
}

// zeroFloor replaces exact zeros before multiplying or inverting, so one
// dead factor cannot silence the whole score. Deliberate robustness
// trade-off; callers and tests depend on the floored behavior.
const zeroFloor = 0.01

// DefaultCap bounds the capped mean.
const DefaultCap = 0.95

// DefaultSharpness steepens the logistic blend's S-curve.
const DefaultSharpness = 5.0

// DefaultMinWeight blends the weakest factor into the min-mean hybrid.
const DefaultMinWeight = 0.3

const emptyNeutral = 0.5

// GeometricMean aggregates as (∏ f_i)^(1/n). An exact-zero factor would
// collapse the product to 0, so only in that case every factor is floored
// to 0.01; small non-zero factors pass through untouched.
func GeometricMean(factors []float64) float64 {
	if len(factors) == 0 {
		return emptyNeutral
	}
	hasZero := false
	for _, f := range factors {
		if normalize.Clamp01(f) == 0 {
			hasZero = true
			break
		}
	}
	product := 1.0
	for _, f := range factors {
		f = normalize.Clamp01(f)
		if hasZero && f < zeroFloor {
			f = zeroFloor
		}
		product *= f
	}
	return normalize.Clamp01(math.Pow(product, 1.0/float64(len(factors))))
}

// HarmonicMean aggregates as n / Σ(1/f_i) with factors floored to 0.01.
// Strictly the most conservative mean: one weak factor drags it hardest.
func HarmonicMean(factors []float64) float64 {
	if len(factors) == 0 {
		return emptyNeutral
	}
	recip := 0.0
	for _, f := range factors {
		f = normalize.Clamp01(f)
		if f < zeroFloor {
			f = zeroFloor
		}
		recip += 1.0 / f
	}
	return normalize.Clamp01(float64(len(factors)) / recip)
}

// ArithmeticMean is the simple average.
func ArithmeticMean(factors []float64) float64 {
	if len(factors) == 0 {
		return emptyNeutral
	}
	sum := 0.0
	for _, f := range factors {
		sum += normalize.Clamp01(f)
	}
	return normalize.Clamp01(sum / float64(len(factors)))
}

// CappedMean is the arithmetic mean clamped to an upper bound, so no
// factor combination can claim perfect certainty. cap ≤ 0 falls back to
// DefaultCap.
func CappedMean(factors []float64, cap float64) float64 {
	if len(factors) == 0 {
		return emptyNeutral
	}
	if cap <= 0 {
		cap = DefaultCap
	}
	mean := ArithmeticMean(factors)
	if mean > cap {
		return cap
	}
	return mean
}

// WeightedMean averages factors under per-factor importance weights,
// auto-normalized to sum to one. Negative weights are clamped to zero; an
// all-zero weight vector falls back to equal weighting. A nil weight
// slice means equal weights; a mismatched length is a configuration error.
func WeightedMean(factors, weights []float64) (float64, error) {
	if len(factors) == 0 {
		return emptyNeutral, nil
	}
	if weights == nil {
		weights = equalWeights(len(factors))
	}
	if len(weights) != len(factors) {
		return 0, &WeightCountError{Factors: len(factors), Weights: len(weights)}
	}

	wsum := 0.0
	ws := make([]float64, len(weights))
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		ws[i] = w
		wsum += w
	}
	if wsum == 0 {
		ws = equalWeights(len(factors))
		wsum = float64(len(factors))
	}

	sum := 0.0
	for i, f := range factors {
		sum += normalize.Clamp01(f) * (ws[i] / wsum)
	}
	return normalize.Clamp01(sum), nil
}

// LogisticBlend feeds the weighted mean through a sigmoid centered at 0.5,
// amplifying extreme combined values while leaving 0.5 fixed. sharpness
// ≤ 0 falls back to DefaultSharpness.
func LogisticBlend(factors, weights []float64, sharpness float64) (float64, error) {
	if len(factors) == 0 {
		return emptyNeutral, nil
	}
	if sharpness <= 0 {
		sharpness = DefaultSharpness
	}
	mean, err := WeightedMean(factors, weights)
	if err != nil {
		return 0, err
	}
	exponent := sharpness * (mean - 0.5)
	if exponent > 100 {
		exponent = 100
	} else if exponent < -100 {
		exponent = -100
	}
	return normalize.Clamp01(1.0 / (1.0 + math.Exp(-exponent))), nil
}

// MinMeanHybrid blends a weakest-link penalty into the mean:
// (1-w)·mean + w·min. The weight is clamped to [0, 1].
func MinMeanHybrid(factors []float64, minWeight float64) float64 {
	if len(factors) == 0 {
		return emptyNeutral
	}
	minWeight = normalize.Clamp01(minWeight)

	minF := normalize.Clamp01(factors[0])
	for _, f := range factors[1:] {
		f = normalize.Clamp01(f)
		if f < minF {
			minF = f
		}
	}
	mean := ArithmeticMean(factors)
	return normalize.Clamp01((1.0-minWeight)*mean + minWeight*minF)
}

func equalWeights(n int) []float64 {
	ws := make([]float64, n)
	for i := range ws {
		ws[i] = 1.0
	}
	return ws
}
