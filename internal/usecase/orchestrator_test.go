package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"UnslugCity/internal/domain/models"
	"UnslugCity/internal/services/feargreed"
	"UnslugCity/internal/services/retrace"
	"UnslugCity/internal/services/trust"
)

func flatBars(n int, price, volume float64) []models.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		out[i] = models.Bar{
			Symbol:   "TEST",
			Interval: "1d",
			Ts:       start.AddDate(0, 0, i),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   volume,
		}
	}
	return out
}

func newTestOrchestrator(t *testing.T) *OrganismOrchestrator {
	t.Helper()
	scanner, err := retrace.NewScanner(retrace.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	calc, err := feargreed.NewCalculator(feargreed.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return NewOrganismOrchestrator(nil,
		NewUnslugOrganism(DefaultUnslugConfig(), scanner, nil),
		NewFearIndexOrganism(DefaultFearIndexConfig(), calc, nil),
		NewMarketFlowOrganism(DefaultMarketFlowConfig(), nil),
	)
}

func TestComputeOneUnknownOrganism(t *testing.T) {
	orc := newTestOrchestrator(t)
	_, err := orc.ComputeOne(context.Background(), models.OrganismType("nonsense"), flatBars(30, 100, 2e6))
	if !errors.Is(err, ErrUnknownOrganism) {
		t.Fatalf("expected ErrUnknownOrganism, got %v", err)
	}
}

func TestComputeOneEmptySeries(t *testing.T) {
	orc := newTestOrchestrator(t)
	_, err := orc.ComputeOne(context.Background(), models.OrganismUnslug, nil)
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
	if _, err := orc.ComputeAll(context.Background(), nil); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries from ComputeAll, got %v", err)
	}
}

func TestComputeOneInsufficientData(t *testing.T) {
	orc := newTestOrchestrator(t)
	out, err := orc.ComputeOne(context.Background(), models.OrganismUnslug, flatBars(5, 100, 2e6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Trust != 0 || out.Signal != models.SignalNeutral {
		t.Fatalf("short series should score zero trust neutral, got trust=%v signal=%v", out.Trust, out.Signal)
	}
	if len(out.Explain) != 1 || out.Explain[0].Name != "insufficient_data" {
		t.Fatalf("expected insufficient_data explain entry, got %+v", out.Explain)
	}
	if out.Explain[0].Contribution != models.DecreasesTrust {
		t.Fatalf("insufficient data should decrease trust")
	}
}

func TestComputeAllCoversEveryOrganism(t *testing.T) {
	orc := newTestOrchestrator(t)
	series := flatBars(60, 100, 2e6)

	results, err := orc.ComputeAll(context.Background(), series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	latest := series[len(series)-1]
	for ot, out := range results {
		if out.Organism != ot {
			t.Fatalf("result keyed %s carries organism %s", ot, out.Organism)
		}
		if out.Symbol != "TEST" {
			t.Fatalf("symbol = %q", out.Symbol)
		}
		if !out.Ts.Equal(latest.Ts) {
			t.Fatalf("%s output ts = %v, want latest bar %v", ot, out.Ts, latest.Ts)
		}
		if out.Trust < 0 || out.Trust > 1 {
			t.Fatalf("%s trust %v out of range", ot, out.Trust)
		}
	}
}

func TestComputeAllDeterministic(t *testing.T) {
	orc := newTestOrchestrator(t)
	series := flatBars(60, 100, 2e6)

	a, err := orc.ComputeAll(context.Background(), series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := orc.ComputeAll(context.Background(), series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for ot, out := range a {
		if b[ot].Trust != out.Trust || b[ot].Signal != out.Signal {
			t.Fatalf("%s not deterministic", ot)
		}
	}
}

type stubOrganism struct {
	ot    models.OrganismType
	err   error
	panic bool
}

func (s stubOrganism) Type() models.OrganismType { return s.ot }

func (s stubOrganism) Score(ctx context.Context, series []models.Bar) (models.OrganismOutput, error) {
	if s.panic {
		panic("stub exploded")
	}
	if s.err != nil {
		return models.OrganismOutput{}, s.err
	}
	latest := series[len(series)-1]
	return models.OrganismOutput{
		Organism: s.ot,
		Symbol:   latest.Symbol,
		Ts:       latest.Ts,
		Signal:   models.SignalBuy,
		Trust:    1,
	}, nil
}

func TestComputeAllContainsFailures(t *testing.T) {
	orc := NewOrganismOrchestrator(nil,
		stubOrganism{ot: "good"},
		stubOrganism{ot: "broken", err: errors.New("boom")},
		stubOrganism{ot: "wild", panic: true},
	)
	series := flatBars(30, 100, 2e6)

	results, err := orc.ComputeAll(context.Background(), series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results["good"].Trust != 1 {
		t.Fatalf("healthy organism should be unaffected")
	}
	for _, ot := range []models.OrganismType{"broken", "wild"} {
		out := results[ot]
		if out.Trust != 0 || out.Signal != models.SignalNeutral {
			t.Fatalf("%s should degrade to zero trust neutral, got %+v", ot, out)
		}
		if len(out.Explain) != 1 || out.Explain[0].Name != "error" {
			t.Fatalf("%s should carry an error explain entry, got %+v", ot, out.Explain)
		}
		if out.Symbol != "TEST" {
			t.Fatalf("%s error output should keep the symbol, got %q", ot, out.Symbol)
		}
	}
}

func TestUnslugTrustOnFlatSeries(t *testing.T) {
	orc := newTestOrchestrator(t)
	// Outside the stress windows the retracement factor is neutral; flat
	// price and volume pin the value and participation factors at 0.5
	// with the liquidity gate open.
	out, err := orc.ComputeOne(context.Background(), models.OrganismUnslug, flatBars(30, 100, 2e6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Pow(0.5*0.5*0.5*1.0, 0.25)
	if math.Abs(out.Trust-want) > 1e-9 {
		t.Fatalf("trust = %v, want %v", out.Trust, want)
	}
	if out.Signal != models.SignalNeutral {
		t.Fatalf("signal = %v, want neutral", out.Signal)
	}
}

func TestUnslugAggregationOverride(t *testing.T) {
	scanner, err := retrace.NewScanner(retrace.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	cfg := DefaultUnslugConfig()
	cfg.Agg.Method = trust.MethodArithmetic
	org := NewUnslugOrganism(cfg, scanner, nil)

	out, err := org.Score(context.Background(), flatBars(30, 100, 2e6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (0.5 + 0.5 + 0.5 + 1.0) / 4
	if math.Abs(out.Trust-want) > 1e-9 {
		t.Fatalf("arithmetic trust = %v, want %v", out.Trust, want)
	}

	cfg.Agg.Method = trust.MethodWeighted
	cfg.Agg.Weights = map[string]float64{"liquidity": 0}
	org = NewUnslugOrganism(cfg, scanner, nil)
	out, err = org.Score(context.Background(), flatBars(30, 100, 2e6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(out.Trust-0.5) > 1e-9 {
		t.Fatalf("weighted trust without liquidity = %v, want 0.5", out.Trust)
	}
}

func TestUnslugThinLiquidityDropsToRisk(t *testing.T) {
	orc := newTestOrchestrator(t)
	out, err := orc.ComputeOne(context.Background(), models.OrganismUnslug, flatBars(30, 100, 1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Signal != models.SignalRisk {
		t.Fatalf("thin liquidity should flag risk, got %v (trust %v)", out.Signal, out.Trust)
	}
}

func TestFearIndexContrarianNeutral(t *testing.T) {
	orc := newTestOrchestrator(t)
	// Too little history for the composite, so it reads dead neutral.
	out, err := orc.ComputeOne(context.Background(), models.OrganismFearIndex, flatBars(30, 100, 2e6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Trust != 0.5 {
		t.Fatalf("neutral composite should carry trust 0.5, got %v", out.Trust)
	}
	if out.Signal != models.SignalNeutral {
		t.Fatalf("signal = %v, want neutral", out.Signal)
	}
	found := false
	for _, e := range out.Explain {
		if e.Name == "composite_label" {
			found = true
		}
	}
	if !found {
		t.Fatalf("explain should carry the composite label")
	}
}

func TestMarketFlowSignals(t *testing.T) {
	orc := newTestOrchestrator(t)

	// Rising closes on a volume burst: strong flow.
	hot := flatBars(30, 100, 1e6)
	for i := range hot {
		p := 100 + float64(i)
		hot[i].Open, hot[i].High, hot[i].Low, hot[i].Close = p, p, p, p
	}
	hot[len(hot)-1].Volume = 2e6
	out, err := orc.ComputeOne(context.Background(), models.OrganismMarketFlow, hot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Signal != models.SignalBuy {
		t.Fatalf("hot flow should signal buy, got %v (trust %v)", out.Signal, out.Trust)
	}

	// Falling closes on fading volume: weak flow.
	cold := flatBars(30, 100, 1e6)
	for i := range cold {
		p := 200 - float64(i)
		cold[i].Open, cold[i].High, cold[i].Low, cold[i].Close = p, p, p, p
	}
	cold[len(cold)-1].Volume = 5e5
	out, err = orc.ComputeOne(context.Background(), models.OrganismMarketFlow, cold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Signal != models.SignalRisk {
		t.Fatalf("cold flow should signal risk, got %v (trust %v)", out.Signal, out.Trust)
	}
}
