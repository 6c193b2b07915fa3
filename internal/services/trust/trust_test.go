package trust

import (
	"math"
	"math/rand"
	"testing"
)

func computeAll(t *testing.T, fs []float64) map[Method]float64 {
	t.Helper()
	weighted, err := WeightedMean(fs, nil)
	if err != nil {
		t.Fatalf("weighted mean: %v", err)
	}
	logistic, err := LogisticBlend(fs, nil, DefaultSharpness)
	if err != nil {
		t.Fatalf("logistic blend: %v", err)
	}
	return map[Method]float64{
		MethodGeometric:     GeometricMean(fs),
		MethodHarmonic:      HarmonicMean(fs),
		MethodArithmetic:    ArithmeticMean(fs),
		MethodCapped:        CappedMean(fs, DefaultCap),
		MethodWeighted:      weighted,
		MethodLogisticBlend: logistic,
		MethodMinMeanHybrid: MinMeanHybrid(fs, DefaultMinWeight),
	}
}

func TestAggregationMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(5)
		fs := make([]float64, n)
		for i := range fs {
			fs[i] = rng.Float64()
		}
		before := computeAll(t, fs)

		i := rng.Intn(n)
		bumped := make([]float64, n)
		copy(bumped, fs)
		bumped[i] = math.Min(1, bumped[i]+0.1+0.5*rng.Float64())
		after := computeAll(t, bumped)

		for method, b := range before {
			if after[method] < b-1e-12 {
				t.Fatalf("%s decreased from %v to %v after raising factor %d (trial %d)",
					method, b, after[method], i, trial)
			}
		}
	}
}

func TestMeanOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 100; trial++ {
		fs := make([]float64, 4)
		for i := range fs {
			fs[i] = 0.05 + 0.9*rng.Float64()
		}
		h := HarmonicMean(fs)
		g := GeometricMean(fs)
		a := ArithmeticMean(fs)
		if h > g+1e-12 || g > a+1e-12 {
			t.Fatalf("mean ordering violated: harmonic=%v geometric=%v arithmetic=%v", h, g, a)
		}
	}
}

func TestEmptyFactorsNeutral(t *testing.T) {
	all := computeAll(t, nil)
	for method, v := range all {
		if v != 0.5 {
			t.Fatalf("%s on empty factors = %v, want 0.5", method, v)
		}
	}
}

func TestZeroFloorKeepsScorePositive(t *testing.T) {
	fs := []float64{0, 0.9, 0.9}
	if g := GeometricMean(fs); g <= 0 {
		t.Fatalf("floored geometric mean should stay positive, got %v", g)
	}
	if h := HarmonicMean(fs); h <= 0 {
		t.Fatalf("floored harmonic mean should stay positive, got %v", h)
	}
}

func TestGeometricMeanFloorsOnlyOnZero(t *testing.T) {
	got := GeometricMean([]float64{0.005, 0.8})
	want := math.Sqrt(0.005 * 0.8)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("small non-zero factors must pass through unfloored: got %v, want %v", got, want)
	}

	floored := GeometricMean([]float64{0, 0.005, 0.8})
	wantFloored := math.Pow(0.01*0.01*0.8, 1.0/3.0)
	if math.Abs(floored-wantFloored) > 1e-12 {
		t.Fatalf("a zero factor should floor the whole vector: got %v, want %v", floored, wantFloored)
	}
}

func TestCappedMean(t *testing.T) {
	got := CappedMean([]float64{1, 1, 1}, DefaultCap)
	if got != DefaultCap {
		t.Fatalf("perfect factors should cap at %v, got %v", DefaultCap, got)
	}
	low := CappedMean([]float64{0.2, 0.4}, DefaultCap)
	if math.Abs(low-0.3) > 1e-9 {
		t.Fatalf("uncapped mean wrong: %v", low)
	}
}

func TestWeightedMean(t *testing.T) {
	got, err := WeightedMean([]float64{1, 0}, []float64{3, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("weighted mean = %v, want 0.75", got)
	}

	// Negative weights clamp to zero; all-zero falls back to equal.
	got, err = WeightedMean([]float64{1, 0}, []float64{-1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("zero weight vector should average equally, got %v", got)
	}

	if _, err := WeightedMean([]float64{1, 0}, []float64{1}); err == nil {
		t.Fatalf("expected weight count error")
	}
}

func TestLogisticBlendFixedPoint(t *testing.T) {
	got, err := LogisticBlend([]float64{0.5, 0.5}, nil, DefaultSharpness)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("0.5 should be a fixed point, got %v", got)
	}

	hi, err := LogisticBlend([]float64{0.9, 0.9}, nil, DefaultSharpness)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hi <= 0.5 {
		t.Fatalf("high factors should blend above 0.5, got %v", hi)
	}
}

func TestMinMeanHybrid(t *testing.T) {
	fs := []float64{0.2, 0.8}
	got := MinMeanHybrid(fs, 0.3)
	want := 0.7*0.5 + 0.3*0.2
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("hybrid = %v, want %v", got, want)
	}
}

func TestBuilderClampsAndOverwrites(t *testing.T) {
	b := NewBuilder(nil)
	b.Add("a", 1.5).Add("b", -0.5).Add("a", 0.6)

	fs := b.Factors()
	if fs["a"] != 0.6 {
		t.Fatalf("re-add should overwrite, got %v", fs["a"])
	}
	if fs["b"] != 0 {
		t.Fatalf("negative factor should clamp to 0, got %v", fs["b"])
	}
	names := b.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("insertion order lost: %v", names)
	}
}

func TestBuilderCompute(t *testing.T) {
	b := NewBuilder(nil)
	if got := b.Compute(MethodGeometric); got != 0.5 {
		t.Fatalf("empty builder should compute 0.5, got %v", got)
	}

	b.Add("x", 0.4).Add("y", 0.9)
	got := b.Compute(MethodArithmetic)
	if math.Abs(got-0.65) > 1e-9 {
		t.Fatalf("arithmetic = %v, want 0.65", got)
	}

	// Unknown method falls back to the geometric mean.
	if b.Compute(Method("bogus")) != b.Compute(MethodGeometric) {
		t.Fatalf("unknown method should fall back to geometric mean")
	}
}

func TestBuilderComputeWithWeights(t *testing.T) {
	b := NewBuilder(nil)
	b.Add("x", 1).Add("y", 0)
	got, err := b.ComputeWithWeights(MethodWeighted, map[string]float64{"x": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("weighted = %v, want 0.75", got)
	}
}

func TestIsValidMethod(t *testing.T) {
	if !IsValidMethod(MethodHarmonic) {
		t.Fatalf("harmonic_mean should be valid")
	}
	if IsValidMethod(Method("median")) {
		t.Fatalf("median should be invalid")
	}
}
