package ports

import (
	"context"
	"io"
	"time"

	"github.com/ahrav/go-posescore/internal/domain"
)

// PoseSource opens pose structure files by identifier.
// Implementations exist for the local filesystem and for object storage;
// the identifier scheme decides which one serves a request.
type PoseSource interface {
	// Open returns a reader over the pose source. A source that does not
	// exist yields an error matching domain.ErrFileMissing so callers can
	// tell absence apart from transport failures.
	//
	// The caller must close the returned reader.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// PredictionSink receives per-complex prediction records as they are
// produced. Implementations may write to files, message brokers, or both.
type PredictionSink interface {
	// Write publishes one prediction set. Writes for different complexes
	// may arrive in any order.
	Write(ctx context.Context, set domain.PredictionSet) error

	// Close flushes buffered records and releases resources.
	Close() error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus,
// OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like passing poses, degenerate
	// poses, or sink errors.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like in-flight complexes.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like pose and aggregate
	// scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// Metric names emitted through MetricsCollector.
const (
	MetricSourceOpens      = "pose_source_opens_total"
	MetricSourceOpenTime   = "pose_source_open_seconds"
	MetricUnitDuration     = "unit_execution"
	MetricUnitExecutions   = "unit_executions_total"
	MetricPosesChecked     = "poses_checked_total"
	MetricPoseScore        = "pose_score"
	MetricAggregateScore   = "aggregate_score"
	MetricComplexesScored  = "complexes_scored_total"
	MetricComplexesRunning = "complexes_in_flight"
	MetricSinkRecords      = "sink_records_total"
)
