package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	outputsPublished *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	trustScore       *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		outputsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unslug_outputs_published_total",
				Help: "Total number of organism outputs published downstream",
			},
			[]string{"organism", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unslug_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		trustScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "unslug_trust_score",
				Help: "Last computed trust score per organism and symbol",
			},
			[]string{"organism", "symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unslug_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordOutputPublished records one published organism output.
func (r *Recorder) RecordOutputPublished(organism, symbol string) {
	r.outputsPublished.WithLabelValues(organism, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordTrust records the last trust score for an organism/symbol pair.
func (r *Recorder) RecordTrust(organism, symbol string, trust float64) {
	r.trustScore.WithLabelValues(organism, symbol).Set(trust)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
