package normalize

import (
	"errors"
	"math"
	"testing"
)

func TestZScoreClamped(t *testing.T) {
	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1000}
	got, err := ZScore(values, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, z := range got {
		if z > 3 || z < -3 {
			t.Fatalf("z[%d] = %v outside clamp", i, z)
		}
	}
	if got[len(got)-1] != 3 {
		t.Fatalf("outlier should clamp to 3, got %v", got[len(got)-1])
	}
}

func TestZScoreInsufficientData(t *testing.T) {
	if _, err := ZScore([]float64{1}, false); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	got, err := ZScore([]float64{1}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("safe mode should yield zeros, got %v", got)
	}
}

func TestZScoreZeroVariance(t *testing.T) {
	flat := []float64{2, 2, 2, 2}
	if _, err := ZScore(flat, false); !errors.Is(err, ErrZeroVariance) {
		t.Fatalf("expected ErrZeroVariance, got %v", err)
	}
	got, err := ZScore(flat, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, z := range got {
		if z != 0 {
			t.Fatalf("safe z[%d] = %v, want 0", i, z)
		}
	}
}

func TestPercentileRank(t *testing.T) {
	got := PercentileRank([]float64{10, 30, 20})
	want := []float64{0, 1, 0.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPercentileRankDegenerate(t *testing.T) {
	if got := PercentileRank(nil); len(got) != 0 {
		t.Fatalf("empty input should rank empty, got %v", got)
	}
	got := PercentileRank([]float64{42})
	if len(got) != 1 || got[0] != 0.5 {
		t.Fatalf("single element should rank 0.5, got %v", got)
	}
}

func TestRollingMinMax(t *testing.T) {
	got, err := RollingMinMax([]float64{1, 2, 3, 4}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Last window is {2,3,4}; its max normalizes to 1.
	if got[3] != 1 {
		t.Fatalf("window max should normalize to 1, got %v", got[3])
	}
	if got[0] != 0.5 {
		t.Fatalf("single-element window is flat, want 0.5, got %v", got[0])
	}
}

func TestRollingMinMaxFlatWindow(t *testing.T) {
	got, err := RollingMinMax([]float64{5, 5, 5}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range got {
		if v != 0.5 {
			t.Fatalf("flat window [%d] = %v, want 0.5", i, v)
		}
	}
}

func TestRollingMinMaxBadWindow(t *testing.T) {
	if _, err := RollingMinMax([]float64{1, 2}, 0); !errors.Is(err, ErrBadWindow) {
		t.Fatalf("expected ErrBadWindow, got %v", err)
	}
}

func TestClamp(t *testing.T) {
	if Clamp01(-0.1) != 0 || Clamp01(1.1) != 1 || Clamp01(0.3) != 0.3 {
		t.Fatalf("Clamp01 bounds wrong")
	}
	if Clamp0100(-5) != 0 || Clamp0100(105) != 100 {
		t.Fatalf("Clamp0100 bounds wrong")
	}
	if math.Abs(Clamp0100(42.5)-42.5) > 1e-12 {
		t.Fatalf("Clamp0100 altered in-range value")
	}
}
