package models

import "time"

// Bar represents one OHLCV observation for a single instrument.
// Series are ordered by Ts ascending; the scoring core treats them as
// read-only input owned by the caller.
type Bar struct {
	Symbol   string
	Interval string // "1d", "1h", "5m"
	Ts       time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	AdjClose float64
	// Features holds optional precomputed auxiliary series values
	// (e.g. a credit-spread proxy) keyed by feature name.
	Features map[string]float64
}

// Closes extracts the close column from a series.
func Closes(series []Bar) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		out[i] = series[i].Close
	}
	return out
}

// Highs extracts the high column from a series.
func Highs(series []Bar) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		out[i] = series[i].High
	}
	return out
}

// Lows extracts the low column from a series.
func Lows(series []Bar) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		out[i] = series[i].Low
	}
	return out
}

// Volumes extracts the volume column from a series.
func Volumes(series []Bar) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		out[i] = series[i].Volume
	}
	return out
}

// Feature extracts a named auxiliary feature column. The returned slice is
// nil when no bar carries the feature; bars missing it individually
// contribute NaN-free zeros, so callers should check coverage first.
func Feature(series []Bar, name string) ([]float64, bool) {
	found := false
	out := make([]float64, len(series))
	for i := range series {
		if v, ok := series[i].Features[name]; ok {
			out[i] = v
			found = true
		}
	}
	if !found {
		return nil, false
	}
	return out, true
}
