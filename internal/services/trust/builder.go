package trust

import (
	"fmt"

	"UnslugCity/internal/services/normalize"
	applogger "UnslugCity/pkg/logger"
)

// WeightCountError reports a weight vector whose length does not match the
// factor set. Raised immediately, never silently corrected.
type WeightCountError struct {
	Factors int
	Weights int
}

func (e *WeightCountError) Error() string {
	return fmt.Sprintf("trust: %d weights for %d factors", e.Weights, e.Factors)
}

// Options carries the tunable strategy parameters.
type Options struct {
	Cap       float64
	Sharpness float64
	MinWeight float64
}

// DefaultOptions returns the documented strategy defaults.
func DefaultOptions() Options {
	return Options{Cap: DefaultCap, Sharpness: DefaultSharpness, MinWeight: DefaultMinWeight}
}

// Builder accumulates named factors and computes a trust score with a
// chosen strategy. Out-of-range inputs are clamped to [0, 1] and logged,
// not raised. Insertion order is preserved; Compute takes a snapshot, so
// nothing mutates once computation begins.
type Builder struct {
	names  []string
	values map[string]float64
	opts   Options
	l      *applogger.Logger
}

// NewBuilder creates an empty factor accumulator. A nil logger is silent.
func NewBuilder(l *applogger.Logger) *Builder {
	return &Builder{values: make(map[string]float64), opts: DefaultOptions(), l: l}
}

// WithOptions overrides the strategy parameters.
func (b *Builder) WithOptions(o Options) *Builder {
	if o.Cap <= 0 {
		o.Cap = DefaultCap
	}
	if o.Sharpness <= 0 {
		o.Sharpness = DefaultSharpness
	}
	o.MinWeight = normalize.Clamp01(o.MinWeight)
	b.opts = o
	return b
}

// Add records a named factor, clamping it into [0, 1]. Re-adding a name
// overwrites its value but keeps its original position.
func (b *Builder) Add(name string, value float64) *Builder {
	clamped := normalize.Clamp01(value)
	if clamped != value && b.l != nil {
		b.l.Warn("trust factor out of range; clamped",
			applogger.String("factor", name),
			applogger.Float64("value", value),
		)
	}
	if _, seen := b.values[name]; !seen {
		b.names = append(b.names, name)
	}
	b.values[name] = clamped
	return b
}

// Compute aggregates the current factor snapshot with the given strategy.
// An unknown method logs a warning and falls back to the geometric mean.
func (b *Builder) Compute(method Method) float64 {
	fs := b.snapshot()
	if len(fs) == 0 {
		return emptyNeutral
	}

	switch method {
	case MethodGeometric:
		return GeometricMean(fs)
	case MethodHarmonic:
		return HarmonicMean(fs)
	case MethodArithmetic:
		return ArithmeticMean(fs)
	case MethodCapped:
		return CappedMean(fs, b.opts.Cap)
	case MethodWeighted:
		v, _ := WeightedMean(fs, nil)
		return v
	case MethodLogisticBlend:
		v, _ := LogisticBlend(fs, nil, b.opts.Sharpness)
		return v
	case MethodMinMeanHybrid:
		return MinMeanHybrid(fs, b.opts.MinWeight)
	default:
		if b.l != nil {
			b.l.Warn("unknown aggregation method; using geometric mean",
				applogger.String("method", string(method)))
		}
		return GeometricMean(fs)
	}
}

// ComputeWithWeights aggregates with per-factor weights looked up by name;
// factors without a weight default to 1. Only the weighted strategies
// accept weights; others fall back to weighted mean.
func (b *Builder) ComputeWithWeights(method Method, weights map[string]float64) (float64, error) {
	fs := b.snapshot()
	if len(fs) == 0 {
		return emptyNeutral, nil
	}

	ws := make([]float64, len(b.names))
	for i, name := range b.names {
		if w, ok := weights[name]; ok {
			ws[i] = w
		} else {
			ws[i] = 1.0
		}
	}

	switch method {
	case MethodLogisticBlend:
		return LogisticBlend(fs, ws, b.opts.Sharpness)
	case MethodWeighted:
		return WeightedMean(fs, ws)
	default:
		if b.l != nil {
			b.l.Warn("method does not take weights; using weighted mean",
				applogger.String("method", string(method)))
		}
		return WeightedMean(fs, ws)
	}
}

// Factors returns a copy of the accumulated factor mapping.
func (b *Builder) Factors() map[string]float64 {
	out := make(map[string]float64, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Names returns factor names in insertion order.
func (b *Builder) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Reset clears all accumulated factors.
func (b *Builder) Reset() *Builder {
	b.names = nil
	b.values = make(map[string]float64)
	return b
}

func (b *Builder) snapshot() []float64 {
	fs := make([]float64, len(b.names))
	for i, name := range b.names {
		fs[i] = b.values[name]
	}
	return fs
}
