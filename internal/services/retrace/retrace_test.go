package retrace

import (
	"math"
	"testing"
	"time"

	"UnslugCity/internal/domain/models"
)

func barsFromPrices(start time.Time, prices []float64) []models.Bar {
	out := make([]models.Bar, len(prices))
	for i, p := range prices {
		out[i] = models.Bar{
			Symbol:   "TEST",
			Interval: "1d",
			Ts:       start.AddDate(0, 0, i),
			Open:     p,
			High:     p + 1,
			Low:      p - 1,
			Close:    p,
			Volume:   1e6,
		}
	}
	return out
}

// stressSeries dips to a low of 100 in early March 2020, recovers to a
// high of 200 inside the month, then holds finalClose through mid April.
func stressSeries(finalClose float64) []models.Bar {
	start := time.Date(2020, 2, 20, 0, 0, 0, 0, time.UTC)
	prices := make([]float64, 0, 56)
	for i := 0; i < 10; i++ {
		prices = append(prices, 150)
	}
	prices = append(prices, 140, 130, 120, 110, 105, 101)
	prices = append(prices, 110, 120, 130, 140, 150, 160, 170, 180, 190, 199)
	for i := 0; i < 15; i++ {
		prices = append(prices, 199)
	}
	for i := 0; i < 15; i++ {
		prices = append(prices, finalClose)
	}
	return barsFromPrices(start, prices)
}

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	s, err := NewScanner(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	return s
}

func TestScanShortSeriesNeutral(t *testing.T) {
	s := newTestScanner(t)
	res := s.Scan(stressSeries(110)[:10])
	if res.Score != 0.5 || res.Band != BandUnknown {
		t.Fatalf("short series should be neutral, got score=%v band=%q", res.Score, res.Band)
	}
}

func TestScanAnchorsAndLevels(t *testing.T) {
	s := newTestScanner(t)
	res := s.Scan(stressSeries(110))

	if res.LowVal != 100 {
		t.Fatalf("low = %v, want 100", res.LowVal)
	}
	if res.HighVal != 200 {
		t.Fatalf("high = %v, want 200", res.HighVal)
	}
	if math.Abs(res.Fib236-123.6) > 1e-9 {
		t.Fatalf("fib 23.6 = %v, want 123.6", res.Fib236)
	}
	if math.Abs(res.Fib382-138.2) > 1e-9 {
		t.Fatalf("fib 38.2 = %v, want 138.2", res.Fib382)
	}
	if res.LowTs == nil || res.HighTs == nil {
		t.Fatalf("anchor timestamps missing")
	}
	if !res.LowTs.Before(*res.HighTs) && !res.LowTs.Equal(*res.HighTs) {
		t.Fatalf("low %v should not follow high %v", res.LowTs, res.HighTs)
	}
}

func TestScanInsideLowerBand(t *testing.T) {
	s := newTestScanner(t)
	res := s.Scan(stressSeries(110))

	if res.Band != BandLower {
		t.Fatalf("band = %q, want %q", res.Band, BandLower)
	}
	// Base decays with position inside the band, plus the capped hit bonus
	// from the trailing closes sitting in range.
	want := 0.9 - (110.0-100.0)/38.2*0.3 + 0.1
	if math.Abs(res.Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", res.Score, want)
	}
	if res.HitsInRange < 2 || res.FirstHit == nil {
		t.Fatalf("expected recorded band hits, got %d", res.HitsInRange)
	}
}

func TestScanUpperBand(t *testing.T) {
	s := newTestScanner(t)
	res := s.Scan(stressSeries(130))
	if res.Band != BandUpper {
		t.Fatalf("band = %q, want %q", res.Band, BandUpper)
	}
}

func TestScanAboveBand(t *testing.T) {
	s := newTestScanner(t)
	res := s.Scan(stressSeries(160))
	if res.Band != BandAbove {
		t.Fatalf("band = %q, want %q", res.Band, BandAbove)
	}
	if res.Score != 0.4 {
		t.Fatalf("score above the band = %v, want 0.4", res.Score)
	}
}

func TestScanBelowLow(t *testing.T) {
	s := newTestScanner(t)
	res := s.Scan(stressSeries(95))
	if res.Band != BandBelowZero {
		t.Fatalf("band = %q, want %q", res.Band, BandBelowZero)
	}
	if res.Score != 0.9 {
		t.Fatalf("score below the low = %v, want 0.9", res.Score)
	}
}

func TestScanScoreOrdering(t *testing.T) {
	s := newTestScanner(t)
	below := s.Scan(stressSeries(95)).Score
	inside := s.Scan(stressSeries(130)).Score
	above := s.Scan(stressSeries(160)).Score
	if !(below > inside && inside > above) {
		t.Fatalf("score ordering violated: below=%v inside=%v above=%v", below, inside, above)
	}
}

func TestScanDegenerateRangeNeutral(t *testing.T) {
	s := newTestScanner(t)
	// Flat March: the high never exceeds the low.
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	series := make([]models.Bar, 25)
	for i := range series {
		series[i] = models.Bar{
			Symbol: "TEST",
			Ts:     start.AddDate(0, 0, i),
			High:   100,
			Low:    100,
			Close:  100,
		}
	}
	res := s.Scan(series)
	if res.Band != BandUnknown || res.Score != 0.5 {
		t.Fatalf("degenerate range should be neutral, got score=%v band=%q", res.Score, res.Band)
	}
}

func TestScanNoStressWindowNeutral(t *testing.T) {
	s := newTestScanner(t)
	series := barsFromPrices(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), make([]float64, 30))
	for i := range series {
		series[i].Low = 99
		series[i].High = 101
		series[i].Close = 100
	}
	res := s.Scan(series)
	if res.Band != BandUnknown || res.Score != 0.5 {
		t.Fatalf("series outside the windows should be neutral, got band=%q", res.Band)
	}
}

func TestScanFallbackWindow(t *testing.T) {
	s := newTestScanner(t)
	// No March bars at all; the wider February window must anchor the low.
	feb := barsFromPrices(time.Date(2020, 2, 15, 0, 0, 0, 0, time.UTC),
		[]float64{120, 118, 115, 112, 110, 108, 106, 104, 102, 100})
	apr := barsFromPrices(time.Date(2020, 4, 16, 0, 0, 0, 0, time.UTC),
		[]float64{110, 115, 120, 125, 130, 135, 140, 145, 150, 150})
	series := append(feb, apr...)

	res := s.Scan(series)
	if res.Band == BandUnknown {
		t.Fatalf("fallback window should anchor a low")
	}
	if res.LowVal != 99 {
		t.Fatalf("fallback low = %v, want 99", res.LowVal)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LookbackBars = 0
	if _, err := NewScanner(cfg, nil); err == nil {
		t.Fatalf("expected error for zero lookback")
	}

	cfg = DefaultConfig()
	cfg.StressEnd = cfg.StressStart
	if _, err := NewScanner(cfg, nil); err == nil {
		t.Fatalf("expected error for empty stress window")
	}
}
