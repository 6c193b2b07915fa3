package retrace

import (
	"fmt"
	"math"
	"time"

	"UnslugCity/internal/domain/models"
	"UnslugCity/internal/services/factors"
	"UnslugCity/internal/services/normalize"
	applogger "UnslugCity/pkg/logger"
)

// Band labels for the current close relative to the retracement levels.
const (
	BandBelowZero = "Below 0%"
	BandLower     = "0-23.6%"
	BandUpper     = "23.6-38.2%"
	BandAbove     = "Above 38.2%"
	BandUnknown   = "N/A"
)

const (
	minBars      = 20
	baseBelow    = 0.9
	baseAbove    = 0.4
	bandSpread   = 0.3
	hitBonusStep = 0.05
	hitBonusCap  = 0.1
)

// Config pins the stress window searched for the reference low, a wider
// fallback window, and the recent-hit lookback in bars.
type Config struct {
	StressStart   time.Time
	StressEnd     time.Time
	FallbackStart time.Time
	FallbackEnd   time.Time
	LookbackBars  int
}

// DefaultConfig targets the pandemic drawdown of March 2020.
func DefaultConfig() Config {
	return Config{
		StressStart:   time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		StressEnd:     time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC),
		FallbackStart: time.Date(2020, 2, 15, 0, 0, 0, 0, time.UTC),
		FallbackEnd:   time.Date(2020, 4, 15, 0, 0, 0, 0, time.UTC),
		LookbackBars:  30,
	}
}

func (c Config) Validate() error {
	if c.LookbackBars <= 0 {
		return fmt.Errorf("retrace: lookback_bars must be positive, got %d", c.LookbackBars)
	}
	if !c.StressStart.Before(c.StressEnd) {
		return fmt.Errorf("retrace: stress window start must precede end")
	}
	if !c.FallbackStart.Before(c.FallbackEnd) {
		return fmt.Errorf("retrace: fallback window start must precede end")
	}
	return nil
}

// Result is one scan: the retracement score, the band the latest close
// sits in, the anchoring low/high, the fib levels between them, and the
// recent band-hit count.
type Result struct {
	Score          float64    `json:"score"`
	Band           string     `json:"band"`
	CurrentPrice   float64    `json:"current_price"`
	LowTs          *time.Time `json:"low_ts,omitempty"`
	LowVal         float64    `json:"low_val"`
	HighTs         *time.Time `json:"high_ts,omitempty"`
	HighVal        float64    `json:"high_val"`
	Fib236         float64    `json:"fib_23_6"`
	Fib382         float64    `json:"fib_38_2"`
	HitsInRange    int        `json:"hits_in_range"`
	FirstHit       *time.Time `json:"first_hit,omitempty"`
	SignalStrength float64    `json:"signal_strength"`
}

// Scanner anchors a fibonacci retracement on the stress-window low and the
// subsequent high, then scores how attractively the latest close sits
// inside the 0-38.2% band.
type Scanner struct {
	cfg Config
	l   *applogger.Logger
}

func NewScanner(cfg Config, l *applogger.Logger) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{cfg: cfg, l: l}, nil
}

// Scan runs one pass over the series. Series with fewer than 20 bars, or
// where no low-then-higher-high pattern exists inside the stress windows,
// degrade to the neutral result.
func (s *Scanner) Scan(series []models.Bar) Result {
	if len(series) < minBars {
		if s.l != nil {
			s.l.Warn("insufficient history for retracement scan",
				applogger.Int("bars", len(series)),
			)
		}
		return neutralResult()
	}

	anchor, ok := s.findLowThenHigh(series)
	if !ok {
		if s.l != nil {
			s.l.Warn("no stress-window low/high pattern found")
		}
		return neutralResult()
	}

	fib236 := factors.FibLevel(anchor.lowVal, anchor.highVal, 23.6)
	fib382 := factors.FibLevel(anchor.lowVal, anchor.highVal, 38.2)
	curr := series[len(series)-1].Close

	band := classifyBand(curr, anchor.lowVal, fib236, fib382)
	hits, firstHit := s.hitsInRange(series, anchor.lowVal, fib382)
	score := scoreBand(curr, anchor.lowVal, fib382, hits)

	lowTs, highTs := anchor.lowTs, anchor.highTs
	return Result{
		Score:          score,
		Band:           band,
		CurrentPrice:   curr,
		LowTs:          &lowTs,
		LowVal:         anchor.lowVal,
		HighTs:         &highTs,
		HighVal:        anchor.highVal,
		Fib236:         fib236,
		Fib382:         fib382,
		HitsInRange:    hits,
		FirstHit:       firstHit,
		SignalStrength: score,
	}
}

type anchorPoints struct {
	lowTs   time.Time
	lowVal  float64
	highTs  time.Time
	highVal float64
}

// findLowThenHigh locates the lowest low inside the stress window (falling
// back to the wider window when the narrow one holds no bars) and the
// highest high from that low onward. Fails when the high never exceeds
// the low.
func (s *Scanner) findLowThenHigh(series []models.Bar) (anchorPoints, bool) {
	window := barsBetween(series, s.cfg.StressStart, s.cfg.StressEnd)
	if len(window) == 0 {
		window = barsBetween(series, s.cfg.FallbackStart, s.cfg.FallbackEnd)
	}
	if len(window) == 0 {
		return anchorPoints{}, false
	}

	low := window[0]
	for _, b := range window[1:] {
		if b.Low < low.Low {
			low = b
		}
	}

	var a anchorPoints
	a.lowTs = low.Ts
	a.lowVal = low.Low
	found := false
	for _, b := range series {
		if b.Ts.Before(low.Ts) {
			continue
		}
		if !found || b.High > a.highVal {
			a.highTs = b.Ts
			a.highVal = b.High
			found = true
		}
	}
	if !found || a.highVal <= a.lowVal {
		return anchorPoints{}, false
	}
	return a, true
}

// hitsInRange counts closes inside [lo, hi] over the trailing lookback.
func (s *Scanner) hitsInRange(series []models.Bar, lo, hi float64) (int, *time.Time) {
	if hi < lo {
		lo, hi = hi, lo
	}
	tail := series
	if len(tail) > s.cfg.LookbackBars {
		tail = tail[len(tail)-s.cfg.LookbackBars:]
	}
	count := 0
	var first *time.Time
	for i := range tail {
		if tail[i].Close >= lo && tail[i].Close <= hi {
			if first == nil {
				ts := tail[i].Ts
				first = &ts
			}
			count++
		}
	}
	return count, first
}

func classifyBand(curr, low, fib236, fib382 float64) string {
	switch {
	case curr < low:
		return BandBelowZero
	case curr <= fib236:
		return BandLower
	case curr <= fib382:
		return BandUpper
	default:
		return BandAbove
	}
}

// scoreBand maps the close's position against the 0-38.2% band to [0, 1]:
// below the low scores highest, inside the band decays linearly with
// position, above scores lowest. Recent band hits add a capped bonus.
func scoreBand(curr, low, fib382 float64, hits int) float64 {
	if low == 0 || fib382 == 0 {
		return 0.5
	}

	var base float64
	switch {
	case curr < low:
		base = baseBelow
	case curr <= fib382:
		ratio := 0.0
		if fib382 > low {
			ratio = (curr - low) / (fib382 - low)
		}
		base = baseBelow - ratio*bandSpread
	default:
		base = baseAbove
	}

	bonus := math.Min(float64(hits)*hitBonusStep, hitBonusCap)
	return normalize.Clamp01(base + bonus)
}

func neutralResult() Result {
	return Result{
		Score:          0.5,
		Band:           BandUnknown,
		SignalStrength: 0.5,
	}
}

func barsBetween(series []models.Bar, start, end time.Time) []models.Bar {
	out := make([]models.Bar, 0, 8)
	for _, b := range series {
		if !b.Ts.Before(start) && !b.Ts.After(end) {
			out = append(out, b)
		}
	}
	return out
}
