package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
	"github.com/ahrav/go-posescore/internal/testutils"
)

func TestPrometheusMetrics_Counters(t *testing.T) {
	pm := NewPrometheusMetrics(prometheus.NewRegistry())

	pm.RecordCounter(ports.MetricSourceOpens, 1, map[string]string{"backend": "s3", "status": "missing"})
	pm.RecordCounter(ports.MetricSourceOpens, 2, map[string]string{"backend": "s3", "status": "missing"})
	pm.RecordCounter(ports.MetricPosesChecked, 3, map[string]string{"result": "pass"})
	pm.RecordCounter(ports.MetricPosesChecked, 1, map[string]string{"result": "fail"})
	pm.RecordCounter(ports.MetricComplexesScored, 1, nil)
	pm.RecordCounter(ports.MetricSinkRecords, 1, map[string]string{"sink": "kafka", "status": "error"})
	pm.RecordCounter("custom_total", 4, map[string]string{"unit": "u1"})

	assert.Equal(t, 3.0, testutil.ToFloat64(pm.sourceOpens.WithLabelValues("s3", "missing")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.posesChecked.WithLabelValues("pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.posesChecked.WithLabelValues("fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.complexesScored.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.sinkRecords.WithLabelValues("kafka", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("custom_total", "success", "u1")))
}

func TestPrometheusMetrics_GaugesAndHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)

	pm.RecordGauge(ports.MetricComplexesRunning, 5, nil)
	assert.Equal(t, 5.0, testutil.ToFloat64(pm.systemGauges.WithLabelValues(ports.MetricComplexesRunning, "unknown")))
	pm.RecordGauge(ports.MetricComplexesRunning, 2, nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.systemGauges.WithLabelValues(ports.MetricComplexesRunning, "unknown")))

	pm.RecordHistogram(ports.MetricPoseScore, 0.7, map[string]string{"model": "dummy"})
	pm.RecordHistogram(ports.MetricAggregateScore, 0.8, map[string]string{"method": "softmax"})
	pm.RecordHistogram(ports.MetricSourceOpenTime, 0.01, map[string]string{"backend": "fs", "status": "success"})
	pm.RecordLatency(ports.MetricUnitDuration, 20*time.Millisecond, map[string]string{"unit": "score"})

	assert.Equal(t, 2, testutil.CollectAndCount(pm.scores))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.sourceLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.unitLatency))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "posescore_scores")
	assert.Contains(t, names, "posescore_pose_source_open_seconds")
}

func TestPrometheusMetrics_IsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheusMetrics(prometheus.NewRegistry())
		NewPrometheusMetrics(prometheus.NewRegistry())
	})
}

type fakeUnit struct {
	name string
	err  error
}

func (f fakeUnit) Name() string    { return f.name }
func (f fakeUnit) Validate() error { return nil }
func (f fakeUnit) Execute(_ context.Context, s domain.State) (domain.State, error) {
	if f.err != nil {
		return s, f.err
	}
	return domain.With(s, domain.KeyComplexID, "done"), nil
}

func TestInstrumentedUnit(t *testing.T) {
	metrics := testutils.NewRecordingMetrics()
	boom := errors.New("boom")
	wrapped := Instrument([]ports.Unit{fakeUnit{name: "ok"}, fakeUnit{name: "bad", err: boom}}, metrics)
	require.Len(t, wrapped, 2)
	assert.Equal(t, "ok", wrapped[0].Name())
	assert.NoError(t, wrapped[0].Validate())

	state := domain.NewComplexState("run", "c1", []string{"a.pdb"}, domain.DefaultConditions())

	out, err := wrapped[0].Execute(context.Background(), state)
	require.NoError(t, err)
	id, _ := domain.Get(out, domain.KeyComplexID)
	assert.Equal(t, "done", id)

	_, err = wrapped[1].Execute(context.Background(), state)
	assert.ErrorIs(t, err, boom)

	assert.Len(t, metrics.Calls(ports.MetricUnitDuration), 2)
	assert.Equal(t, 1.0, metrics.Sum(ports.MetricUnitExecutions, map[string]string{"unit": "bad", "status": "error"}))
	assert.Equal(t, 1.0, metrics.Sum(ports.MetricUnitExecutions, map[string]string{"unit": "ok", "status": "success"}))

	assert.Equal(t, fakeUnit{name: "ok"}, wrapped[0].(*InstrumentedUnit).Unwrap())
	assert.Panics(t, func() { NewInstrumentedUnit(nil, nil) })
}
