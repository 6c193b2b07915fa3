package feargreed

import (
	"fmt"
	"math"
	"sort"

	"UnslugCity/internal/domain/models"
	"UnslugCity/internal/services/normalize"
	applogger "UnslugCity/pkg/logger"
)

// Component names, also used as explain entry names.
const (
	CompMomentum       = "momentum"
	CompStrength       = "strength"
	CompBreadth        = "breadth"
	CompVolatility     = "volatility"
	CompSafeHaven      = "safe_haven"
	CompCredit         = "credit"
	CompShortSentiment = "short_sentiment"
)

// Auxiliary feature names honored when the caller supplies precomputed
// series on the input bars.
const (
	FeatureCreditSpread = "credit_spread"
	FeatureShortRatio   = "short_ratio"
	FeatureRefClose     = "ref_close"
)

// Label tiers at the 70/55/45/30 thresholds.
const (
	LabelExtremeGreed = "Extreme Greed"
	LabelGreed        = "Greed"
	LabelNeutral      = "Neutral"
	LabelFear         = "Fear"
	LabelExtremeFear  = "Extreme Fear"
)

// tradingDaysPerYear annualizes daily return volatility.
const tradingDaysPerYear = 252

// maxEnvAdjustment bounds the external environment adjustment.
const maxEnvAdjustment = 5.0

// Config carries the component windows.
type Config struct {
	MomentumMA     int // moving average for the momentum ratio
	StrengthWindow int // high/low range window
	BreadthWindow  int // OBV delta span
	RVWindow       int // short volatility window
	RVRefWindow    int // reference volatility window
	RankWindow     int // percentile-rank window for most components
	MinBars        int // below this the whole calculation degrades to neutral
}

// DefaultConfig returns the documented window defaults.
func DefaultConfig() Config {
	return Config{
		MomentumMA:     125,
		StrengthWindow: 252,
		BreadthWindow:  20,
		RVWindow:       20,
		RVRefWindow:    50,
		RankWindow:     252,
		MinBars:        50,
	}
}

// Validate rejects non-positive windows.
func (c Config) Validate() error {
	for _, w := range []struct {
		name string
		v    int
	}{
		{"momentum_ma", c.MomentumMA},
		{"strength_window", c.StrengthWindow},
		{"breadth_window", c.BreadthWindow},
		{"rv_window", c.RVWindow},
		{"rv_ref_window", c.RVRefWindow},
		{"rank_window", c.RankWindow},
		{"min_bars", c.MinBars},
	} {
		if w.v <= 0 {
			return fmt.Errorf("feargreed: %s must be positive, got %d", w.name, w.v)
		}
	}
	if c.RVRefWindow <= c.RVWindow {
		return fmt.Errorf("feargreed: rv_ref_window must exceed rv_window")
	}
	return nil
}

// Result is one composite reading: a regime score in [0, 100], its label,
// the component breakdown, and a ranked explanation.
type Result struct {
	Score          float64            `json:"score"`
	Label          string             `json:"label"`
	Components     map[string]float64 `json:"components"`
	EnvAdjustment  float64            `json:"env_adjustment"`
	SignalStrength float64            `json:"signal_strength"`
	Explanation    []models.ExplainEntry `json:"explanation"`
}

// Calculator computes the seven-component fear/greed composite. Pure over
// its input series; a nil logger is silent.
type Calculator struct {
	cfg Config
	l   *applogger.Logger
}

func NewCalculator(cfg Config, l *applogger.Logger) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg, l: l}, nil
}

// Calculate computes the composite with no environment adjustment.
func (c *Calculator) Calculate(series []models.Bar) Result {
	return c.CalculateEnv(series, 0)
}

// CalculateEnv computes the composite and adds an external environment
// adjustment, clamped to ±5, before the final [0, 100] clamp. Components
// that cannot be computed from the available history are skipped; a series
// shorter than MinBars degrades to the neutral result.
func (c *Calculator) CalculateEnv(series []models.Bar, envAdj float64) Result {
	if len(series) < c.cfg.MinBars {
		if c.l != nil {
			c.l.Warn("insufficient history for fear/greed composite",
				applogger.Int("bars", len(series)),
				applogger.Int("need", c.cfg.MinBars),
			)
		}
		return neutralResult()
	}

	closes := models.Closes(series)
	volumes := models.Volumes(series)

	components := make(map[string]float64)
	put := func(name string, v float64, ok bool) {
		if ok && !math.IsNaN(v) {
			components[name] = normalize.Clamp0100(v)
		}
	}

	v, ok := c.momentum(closes)
	put(CompMomentum, v, ok)
	v, ok = c.strength(closes)
	put(CompStrength, v, ok)
	v, ok = c.breadth(closes, volumes)
	put(CompBreadth, v, ok)
	v, ok = c.volatility(closes)
	put(CompVolatility, v, ok)
	v, ok = c.safeHaven(series, closes)
	put(CompSafeHaven, v, ok)
	v, ok = c.credit(series, closes)
	put(CompCredit, v, ok)
	v, ok = c.shortSentiment(series, volumes)
	put(CompShortSentiment, v, ok)

	if len(components) == 0 {
		return neutralResult()
	}

	sum := 0.0
	for _, v := range components {
		sum += v
	}
	score := sum / float64(len(components))

	if envAdj > maxEnvAdjustment {
		envAdj = maxEnvAdjustment
	} else if envAdj < -maxEnvAdjustment {
		envAdj = -maxEnvAdjustment
	}
	score = normalize.Clamp0100(score + envAdj)

	return Result{
		Score:          score,
		Label:          RegimeLabel(score),
		Components:     components,
		EnvAdjustment:  envAdj,
		SignalStrength: normalize.Clamp01(score / 100.0),
		Explanation:    explain(components),
	}
}

// RegimeLabel tiers a composite score into its qualitative regime.
func RegimeLabel(score float64) string {
	switch {
	case score >= 70:
		return LabelExtremeGreed
	case score >= 55:
		return LabelGreed
	case score <= 30:
		return LabelExtremeFear
	case score <= 45:
		return LabelFear
	default:
		return LabelNeutral
	}
}

func neutralResult() Result {
	components := map[string]float64{
		CompMomentum:       50,
		CompStrength:       50,
		CompBreadth:        50,
		CompVolatility:     50,
		CompSafeHaven:      50,
		CompCredit:         50,
		CompShortSentiment: 50,
	}
	return Result{
		Score:          50,
		Label:          LabelNeutral,
		Components:     components,
		SignalStrength: 0.5,
		Explanation:    explain(components),
	}
}

// momentum ranks close/SMA(MomentumMA) within a long trailing window.
func (c *Calculator) momentum(closes []float64) (float64, bool) {
	ma := c.cfg.MomentumMA
	if len(closes) < ma {
		return 0, false
	}
	ratios := make([]float64, 0, len(closes)-ma+1)
	for i := ma - 1; i < len(closes); i++ {
		s := mean(closes[i-ma+1 : i+1])
		if s == 0 {
			return 0, false
		}
		ratios = append(ratios, closes[i]/s)
	}
	win := c.cfg.MomentumMA
	if win < 200 {
		win = 200
	}
	return trailingRank100(ratios, win)
}

// strength scales the latest close's position within the trailing
// high/low range to [0, 100].
func (c *Calculator) strength(closes []float64) (float64, bool) {
	w := c.cfg.StrengthWindow
	if len(closes) < w {
		return 0, false
	}
	window := closes[len(closes)-w:]
	lo, hi := window[0], window[0]
	for _, v := range window {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 50, true
	}
	return 100.0 * (closes[len(closes)-1] - lo) / (hi - lo), true
}

// breadth ranks the BreadthWindow-bar change in on-balance volume.
func (c *Calculator) breadth(closes, volumes []float64) (float64, bool) {
	span := c.cfg.BreadthWindow
	obv := onBalanceVolume(closes, volumes)
	if len(obv) <= span {
		return 0, false
	}
	deltas := make([]float64, 0, len(obv)-span)
	for i := span; i < len(obv); i++ {
		deltas = append(deltas, obv[i]-obv[i-span])
	}
	return trailingRank100(deltas, c.cfg.RankWindow)
}

// volatility ranks the short/long annualized volatility ratio, inverted:
// elevated relative volatility reads as fear.
func (c *Calculator) volatility(closes []float64) (float64, bool) {
	rets := pctChange(closes, 1)
	long := c.cfg.RVRefWindow
	if len(rets) < long {
		return 0, false
	}
	ratios := make([]float64, 0, len(rets)-long+1)
	for i := long - 1; i < len(rets); i++ {
		rvShort := annualizedVol(rets[i-c.cfg.RVWindow+1 : i+1])
		rvLong := annualizedVol(rets[i-long+1 : i+1])
		if rvLong == 0 {
			return 0, false
		}
		ratios = append(ratios, rvShort/rvLong)
	}
	rank, ok := trailingRank100(ratios, c.cfg.RankWindow)
	if !ok {
		return 0, false
	}
	return 100.0 - rank, true
}

// safeHaven ranks the BreadthWindow-period return relative to a reference
// series when one is supplied via the ref_close feature; without one it
// falls back to the single-instrument variant, inverting the rank so
// rising returns read as fading safe-haven demand.
func (c *Calculator) safeHaven(series []models.Bar, closes []float64) (float64, bool) {
	span := c.cfg.BreadthWindow
	rets := pctChange(closes, span)
	if len(rets) == 0 {
		return 0, false
	}

	if ref, ok := models.Feature(series, FeatureRefClose); ok {
		refRets := pctChange(ref, span)
		if len(refRets) != len(rets) {
			return 0, false
		}
		rel := make([]float64, len(rets))
		for i := range rets {
			rel[i] = rets[i] - refRets[i]
		}
		return trailingRank100(rel, c.cfg.RankWindow)
	}

	rank, ok := trailingRank100(rets, c.cfg.RankWindow)
	if !ok {
		return 0, false
	}
	return 100.0 - rank, true
}

// credit ranks a caller-supplied credit-spread series (inverted: wide
// spreads read as fear), falling back to a coarse price-vs-200-bar-mean
// proxy.
func (c *Calculator) credit(series []models.Bar, closes []float64) (float64, bool) {
	if spread, ok := models.Feature(series, FeatureCreditSpread); ok {
		rank, rok := trailingRank100(spread, c.cfg.RankWindow)
		if !rok {
			return 0, false
		}
		return 100.0 - rank, true
	}

	const longMean = 200
	if len(closes) < longMean {
		return 0, false
	}
	if closes[len(closes)-1] > mean(closes[len(closes)-longMean:]) {
		return 100, true
	}
	return 30, true
}

// shortSentiment ranks a caller-supplied short-interest ratio (inverted),
// falling back to a volume-participation rank.
func (c *Calculator) shortSentiment(series []models.Bar, volumes []float64) (float64, bool) {
	if ratio, ok := models.Feature(series, FeatureShortRatio); ok {
		rank, rok := trailingRank100(ratio, c.cfg.RankWindow)
		if !rok {
			return 0, false
		}
		return 100.0 - rank, true
	}
	return trailingRank100(volumes, c.cfg.RankWindow)
}

// explain ranks components by distance from the neutral midpoint and tags
// each by the direction it pushes the composite.
func explain(components map[string]float64) []models.ExplainEntry {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		da := math.Abs(components[names[a]] - 50)
		db := math.Abs(components[names[b]] - 50)
		if da == db {
			return names[a] < names[b]
		}
		return da > db
	})

	out := make([]models.ExplainEntry, 0, len(names))
	for _, name := range names {
		v := components[name]
		contribution := models.NeutralTrust
		if v > 60 {
			contribution = models.IncreasesTrust
		} else if v < 40 {
			contribution = models.DecreasesTrust
		}
		out = append(out, models.ExplainEntry{
			Name:         name,
			Value:        math.Round(v*10) / 10,
			Contribution: contribution,
		})
	}
	return out
}

// trailingRank100 returns the percentile rank (0-100) of the last element
// within its trailing window of the given size; false when fewer than
// window values exist.
func trailingRank100(values []float64, window int) (float64, bool) {
	if window <= 1 || len(values) < window {
		return 0, false
	}
	tail := values[len(values)-window:]
	last := tail[len(tail)-1]
	count := 0
	for _, v := range tail {
		if v <= last {
			count++
		}
	}
	return 100.0 * float64(count) / float64(window), true
}

func onBalanceVolume(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	run := 0.0
	for i := range closes {
		if i > 0 {
			switch {
			case closes[i] > closes[i-1]:
				run += volumes[i]
			case closes[i] < closes[i-1]:
				run -= volumes[i]
			}
		}
		out[i] = run
	}
	return out
}

// pctChange computes span-period relative changes; zero denominators
// contribute zero.
func pctChange(values []float64, span int) []float64 {
	if len(values) <= span {
		return nil
	}
	out := make([]float64, 0, len(values)-span)
	for i := span; i < len(values); i++ {
		if values[i-span] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/values[i-span]-1)
	}
	return out
}

func annualizedVol(rets []float64) float64 {
	n := len(rets)
	if n == 0 {
		return 0
	}
	m := mean(rets)
	ss := 0.0
	for _, r := range rets {
		d := r - m
		ss += d * d
	}
	return math.Sqrt(ss/float64(n)) * math.Sqrt(tradingDaysPerYear)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
