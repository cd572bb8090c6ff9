// Package middleware provides cross-cutting concerns for the scoring
// engine: Prometheus metrics and instrumentation of pipeline units.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-posescore/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. Well-known metric names map to dedicated vectors; anything
// else falls through to generic operation counters and system gauges.
type PrometheusMetrics struct {
	unitLatency      *prometheus.HistogramVec
	sourceLatency    *prometheus.HistogramVec
	sourceOpens      *prometheus.CounterVec
	posesChecked     *prometheus.CounterVec
	complexesScored  *prometheus.CounterVec
	sinkRecords      *prometheus.CounterVec
	scores           *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// scoreBuckets covers probabilities finely and raw margins coarsely.
var scoreBuckets = []float64{-5, -1, 0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1, 5}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metrics with reg. A nil reg registers with the default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		unitLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "posescore",
				Name:      "unit_duration_seconds",
				Help:      "Execution time of pipeline units per complex.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "unit"},
		),
		sourceLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "posescore",
				Name:      ports.MetricSourceOpenTime,
				Help:      "Time to open a pose source.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "status"},
		),
		sourceOpens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "posescore",
				Name:      ports.MetricSourceOpens,
				Help:      "Pose source opens by backend and outcome.",
			},
			[]string{"backend", "status"},
		),
		posesChecked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "posescore",
				Name:      ports.MetricPosesChecked,
				Help:      "Validated poses by outcome.",
			},
			[]string{"result"},
		),
		complexesScored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "posescore",
				Name:      ports.MetricComplexesScored,
				Help:      "Scored complexes by outcome.",
			},
			[]string{"status"},
		),
		sinkRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "posescore",
				Name:      ports.MetricSinkRecords,
				Help:      "Prediction records written by sink and outcome.",
			},
			[]string{"sink", "status"},
		),
		scores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "posescore",
				Name:      "scores",
				Help:      "Distribution of pose and aggregate scores.",
				Buckets:   scoreBuckets,
			},
			[]string{"kind", "source"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "posescore",
				Name:      "operations_total",
				Help:      "Total number of other operations performed.",
			},
			[]string{"operation", "status", "unit"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "posescore",
				Name:      "system_state",
				Help:      "Current system state values.",
			},
			[]string{"metric", "unit"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.unitLatency.WithLabelValues(operation, labelOr(labels, "unit", "unknown")).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case ports.MetricSourceOpens:
		pm.sourceOpens.WithLabelValues(labelOr(labels, "backend", "unknown"), labelOr(labels, "status", "unknown")).Add(value)
	case ports.MetricPosesChecked:
		pm.posesChecked.WithLabelValues(labelOr(labels, "result", "unknown")).Add(value)
	case ports.MetricComplexesScored:
		pm.complexesScored.WithLabelValues(labelOr(labels, "status", "success")).Add(value)
	case ports.MetricSinkRecords:
		pm.sinkRecords.WithLabelValues(labelOr(labels, "sink", "unknown"), labelOr(labels, "status", "success")).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, labelOr(labels, "status", "success"), labelOr(labels, "unit", "unknown")).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, labelOr(labels, "unit", "unknown")).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case ports.MetricSourceOpenTime:
		pm.sourceLatency.WithLabelValues(labelOr(labels, "backend", "unknown"), labelOr(labels, "status", "unknown")).Observe(value)
	case ports.MetricPoseScore:
		pm.scores.WithLabelValues("pose", labelOr(labels, "model", "unknown")).Observe(value)
	case ports.MetricAggregateScore:
		pm.scores.WithLabelValues("aggregate", labelOr(labels, "method", "unknown")).Observe(value)
	default:
		pm.unitLatency.WithLabelValues(metric, labelOr(labels, "unit", "unknown")).Observe(value)
	}
}

func labelOr(labels map[string]string, key, def string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return def
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
