package usecase

import (
	"context"
	"fmt"

	"UnslugCity/internal/domain/models"
	"UnslugCity/internal/services/factors"
	"UnslugCity/internal/services/feargreed"
	"UnslugCity/internal/services/retrace"
	"UnslugCity/internal/services/trust"
	applogger "UnslugCity/pkg/logger"
)

// Signal thresholds shared by all organisms.
const (
	signalHigh = 0.7
	signalLow  = 0.4
)

// AggregationSettings selects the trust strategy an organism applies to
// its factor set, with optional per-factor weights for the weighted
// strategies.
type AggregationSettings struct {
	Method  trust.Method
	Options trust.Options
	Weights map[string]float64
}

func defaultAggregation() AggregationSettings {
	return AggregationSettings{Method: trust.MethodGeometric, Options: trust.DefaultOptions()}
}

func (a AggregationSettings) compute(b *trust.Builder) float64 {
	if len(a.Weights) > 0 {
		if v, err := b.ComputeWithWeights(a.Method, a.Weights); err == nil {
			return v
		}
	}
	return b.Compute(a.Method)
}

func insufficientOutput(ot models.OrganismType, series []models.Bar, need int) models.OrganismOutput {
	latest := series[len(series)-1]
	return models.OrganismOutput{
		Organism: ot,
		Symbol:   latest.Symbol,
		Ts:       latest.Ts,
		Signal:   models.SignalNeutral,
		Trust:    0.0,
		Explain: []models.ExplainEntry{{
			Name:         "insufficient_data",
			Value:        fmt.Sprintf("%d periods (need >=%d)", len(series), need),
			Contribution: models.DecreasesTrust,
		}},
	}
}

// UnslugConfig holds the dip-hunting lookbacks.
type UnslugConfig struct {
	MinBars            int
	VWAPLookback       int
	VolumeLookback     int
	LiquidityThreshold float64
	Agg                AggregationSettings
}

func DefaultUnslugConfig() UnslugConfig {
	return UnslugConfig{
		MinBars:            20,
		VWAPLookback:       20,
		VolumeLookback:     10,
		LiquidityThreshold: 1e6,
		Agg:                defaultAggregation(),
	}
}

// UnslugOrganism scores rebound opportunity near historical lows. It
// combines the retracement-band score with value, participation and
// liquidity factors through a geometric mean, so one dead factor sinks
// the whole score.
type UnslugOrganism struct {
	cfg     UnslugConfig
	scanner *retrace.Scanner
	l       *applogger.Logger
}

func NewUnslugOrganism(cfg UnslugConfig, scanner *retrace.Scanner, l *applogger.Logger) *UnslugOrganism {
	return &UnslugOrganism{cfg: cfg, scanner: scanner, l: l}
}

func (o *UnslugOrganism) Type() models.OrganismType { return models.OrganismUnslug }

func (o *UnslugOrganism) Score(ctx context.Context, series []models.Bar) (models.OrganismOutput, error) {
	if len(series) == 0 {
		return models.OrganismOutput{}, ErrEmptySeries
	}
	if len(series) < o.cfg.MinBars {
		return insufficientOutput(o.Type(), series, o.cfg.MinBars), nil
	}
	latest := series[len(series)-1]

	highs := models.Highs(series)
	lows := models.Lows(series)
	closes := models.Closes(series)
	volumes := models.Volumes(series)

	vwapZ, err := factors.VWAPDeviation(highs, lows, closes, volumes, o.cfg.VWAPLookback)
	if err != nil {
		return models.OrganismOutput{}, fmt.Errorf("vwap deviation: %w", err)
	}
	volRatio, err := factors.VolumeTurnover(volumes, o.cfg.VolumeLookback)
	if err != nil {
		return models.OrganismOutput{}, fmt.Errorf("volume turnover: %w", err)
	}
	liquidity := factors.LiquidityFloor(volumes, o.cfg.LiquidityThreshold)
	scan := o.scanner.Scan(series)

	builder := trust.NewBuilder(o.l).WithOptions(o.cfg.Agg.Options)
	builder.Add("retrace_score", scan.Score)
	builder.Add("vwap_z", vwapZ)
	builder.Add("volume_ratio", volRatio)
	builder.Add("liquidity", liquidity)
	score := o.cfg.Agg.compute(builder)

	signal := models.SignalRisk
	switch {
	case score >= signalHigh:
		signal = models.SignalBuy
	case score >= signalLow:
		signal = models.SignalNeutral
	}

	explain := []models.ExplainEntry{
		{
			Name:         "retrace_band",
			Value:        scan.Band,
			Contribution: contribIf(scan.Score > 0.5),
		},
		{
			Name:         "vwap_z_score",
			Value:        fmt.Sprintf("%.3f", vwapZ),
			Contribution: contribBelow(vwapZ, 0.5),
		},
		{
			Name:         "volume_ratio",
			Value:        fmt.Sprintf("%.3f", volRatio),
			Contribution: contribAbove(volRatio, 0.5),
		},
		{
			Name:         "liquidity_floor",
			Value:        passFail(liquidity),
			Contribution: contribIf(liquidity == 1.0),
		},
	}

	if o.l != nil {
		o.l.Info("unslug scored",
			applogger.String("symbol", latest.Symbol),
			applogger.Float64("trust", score),
			applogger.String("signal", string(signal)),
		)
	}

	return models.OrganismOutput{
		Organism: o.Type(),
		Symbol:   latest.Symbol,
		Ts:       latest.Ts,
		Signal:   signal,
		Trust:    score,
		Explain:  explain,
	}, nil
}

// FearIndexConfig holds the auxiliary stress-factor windows.
type FearIndexConfig struct {
	MinBars        int
	VolWindow      int
	DrawdownWindow int
}

func DefaultFearIndexConfig() FearIndexConfig {
	return FearIndexConfig{
		MinBars:        20,
		VolWindow:      20,
		DrawdownWindow: 20,
	}
}

// FearIndexOrganism reads market stress through the fear/greed composite
// and trades against it: elevated greed maps to RISK, elevated fear to
// BUY. Trust carries the composite rescaled to [0, 1].
type FearIndexOrganism struct {
	cfg  FearIndexConfig
	calc *feargreed.Calculator
	l    *applogger.Logger
}

func NewFearIndexOrganism(cfg FearIndexConfig, calc *feargreed.Calculator, l *applogger.Logger) *FearIndexOrganism {
	return &FearIndexOrganism{cfg: cfg, calc: calc, l: l}
}

func (o *FearIndexOrganism) Type() models.OrganismType { return models.OrganismFearIndex }

func (o *FearIndexOrganism) Score(ctx context.Context, series []models.Bar) (models.OrganismOutput, error) {
	if len(series) == 0 {
		return models.OrganismOutput{}, ErrEmptySeries
	}
	if len(series) < o.cfg.MinBars {
		return insufficientOutput(o.Type(), series, o.cfg.MinBars), nil
	}
	latest := series[len(series)-1]

	composite := o.calc.Calculate(series)
	score := composite.Score / 100.0

	closes := models.Closes(series)
	returns := factors.Returns(closes)
	volPct, err := factors.RealizedVolPercentile(returns, o.cfg.VolWindow)
	if err != nil {
		return models.OrganismOutput{}, fmt.Errorf("realized vol percentile: %w", err)
	}
	drawdown, err := factors.DrawdownIntensity(closes, o.cfg.DrawdownWindow)
	if err != nil {
		return models.OrganismOutput{}, fmt.Errorf("drawdown intensity: %w", err)
	}

	// contrarian mapping: greed is risk, fear is opportunity
	signal := models.SignalBuy
	switch {
	case score >= signalHigh:
		signal = models.SignalRisk
	case score >= signalLow:
		signal = models.SignalNeutral
	}

	explain := make([]models.ExplainEntry, 0, len(composite.Explanation)+3)
	explain = append(explain, models.ExplainEntry{
		Name:         "composite_label",
		Value:        composite.Label,
		Contribution: models.NeutralTrust,
	})
	explain = append(explain, composite.Explanation...)
	explain = append(explain,
		models.ExplainEntry{
			Name:         "realized_volatility",
			Value:        fmt.Sprintf("%.3f", volPct),
			Contribution: contribAbove(volPct, 0.5),
		},
		models.ExplainEntry{
			Name:         "drawdown_intensity",
			Value:        fmt.Sprintf("%.3f", drawdown),
			Contribution: contribAbove(drawdown, 0.5),
		},
	)

	if o.l != nil {
		o.l.Info("fear index scored",
			applogger.String("symbol", latest.Symbol),
			applogger.Float64("trust", score),
			applogger.String("label", composite.Label),
		)
	}

	return models.OrganismOutput{
		Organism: o.Type(),
		Symbol:   latest.Symbol,
		Ts:       latest.Ts,
		Signal:   signal,
		Trust:    score,
		Explain:  explain,
	}, nil
}

// MarketFlowConfig holds the participation-flow lookbacks. The liquidity
// bar sits lower than the dip hunter's.
type MarketFlowConfig struct {
	MinBars            int
	VolumeLookback     int
	LiquidityThreshold float64
	TrendBars          int
	Agg                AggregationSettings
}

func DefaultMarketFlowConfig() MarketFlowConfig {
	return MarketFlowConfig{
		MinBars:            10,
		VolumeLookback:     10,
		LiquidityThreshold: 5e5,
		TrendBars:          3,
		Agg:                defaultAggregation(),
	}
}

// MarketFlowOrganism reads participation flow: turnover, a liquidity
// gate, and a coarse short-horizon price trend.
type MarketFlowOrganism struct {
	cfg MarketFlowConfig
	l   *applogger.Logger
}

func NewMarketFlowOrganism(cfg MarketFlowConfig, l *applogger.Logger) *MarketFlowOrganism {
	return &MarketFlowOrganism{cfg: cfg, l: l}
}

func (o *MarketFlowOrganism) Type() models.OrganismType { return models.OrganismMarketFlow }

func (o *MarketFlowOrganism) Score(ctx context.Context, series []models.Bar) (models.OrganismOutput, error) {
	if len(series) == 0 {
		return models.OrganismOutput{}, ErrEmptySeries
	}
	if len(series) < o.cfg.MinBars {
		return insufficientOutput(o.Type(), series, o.cfg.MinBars), nil
	}
	latest := series[len(series)-1]

	closes := models.Closes(series)
	volumes := models.Volumes(series)

	volRatio, err := factors.VolumeTurnover(volumes, o.cfg.VolumeLookback)
	if err != nil {
		return models.OrganismOutput{}, fmt.Errorf("volume turnover: %w", err)
	}
	liquidity := factors.LiquidityFloor(volumes, o.cfg.LiquidityThreshold)

	recent := closes
	if len(recent) > o.cfg.TrendBars {
		recent = recent[len(recent)-o.cfg.TrendBars:]
	}
	priceTrend := 0.0
	if recent[len(recent)-1] > recent[0] {
		priceTrend = 1.0
	}

	builder := trust.NewBuilder(o.l).WithOptions(o.cfg.Agg.Options)
	builder.Add("volume_turnover", volRatio)
	builder.Add("liquidity", liquidity)
	builder.Add("price_trend", priceTrend)
	score := o.cfg.Agg.compute(builder)

	signal := models.SignalRisk
	switch {
	case score >= signalHigh:
		signal = models.SignalBuy
	case score >= signalLow:
		signal = models.SignalNeutral
	}

	trendLabel := "downtrend"
	if priceTrend == 1.0 {
		trendLabel = "uptrend"
	}
	explain := []models.ExplainEntry{
		{
			Name:         "volume_turnover",
			Value:        fmt.Sprintf("%.3f", volRatio),
			Contribution: contribAbove(volRatio, 0.5),
		},
		{
			Name:         "liquidity_check",
			Value:        passFail(liquidity),
			Contribution: contribIf(liquidity == 1.0),
		},
		{
			Name:         "price_trend",
			Value:        trendLabel,
			Contribution: contribAbove(priceTrend, 0.5),
		},
	}

	if o.l != nil {
		o.l.Info("market flow scored",
			applogger.String("symbol", latest.Symbol),
			applogger.Float64("trust", score),
			applogger.String("signal", string(signal)),
		)
	}

	return models.OrganismOutput{
		Organism: o.Type(),
		Symbol:   latest.Symbol,
		Ts:       latest.Ts,
		Signal:   signal,
		Trust:    score,
		Explain:  explain,
	}, nil
}

func passFail(gate float64) string {
	if gate == 1.0 {
		return "pass"
	}
	return "fail"
}

// contribIf tags a passing condition as trust-raising and a failing one
// as trust-lowering.
func contribIf(pass bool) models.Contribution {
	if pass {
		return models.IncreasesTrust
	}
	return models.DecreasesTrust
}

// contribAbove raises trust above the threshold and stays neutral below.
func contribAbove(v, threshold float64) models.Contribution {
	if v > threshold {
		return models.IncreasesTrust
	}
	return models.NeutralTrust
}

// contribBelow raises trust below the threshold, lowers it otherwise.
func contribBelow(v, threshold float64) models.Contribution {
	if v < threshold {
		return models.IncreasesTrust
	}
	return models.DecreasesTrust
}
