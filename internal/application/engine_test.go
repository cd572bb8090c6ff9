package application

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ahrav/go-posescore/infrastructure/ensemble"
	"github.com/ahrav/go-posescore/infrastructure/sink"
	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
	"github.com/ahrav/go-posescore/internal/testutils"
)

func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// poseFixtures writes the end-to-end poses into a temp dir:
//   - tight: LYS/ASP at 2.5 Å, three salt-bridge contacts, buried 3
//   - loose: LYS/ASP at 3.0 Å, one contact, buried 1
//   - single: one chain, fails validation
//   - missing: never written
type poseFixtures struct {
	tight, loose, single, missing string
}

func writePoseFixtures(t *testing.T) poseFixtures {
	t.Helper()
	dir := t.TempDir()
	return poseFixtures{
		tight:   testutils.PassingPose(2.5).WriteFile(t, dir, "tight.pdb"),
		loose:   testutils.PassingPose(3.0).WriteFile(t, dir, "loose.pdb"),
		single:  testutils.SingleChainPose().WriteFile(t, dir, "single.pdb"),
		missing: filepath.Join(dir, "missing.pdb"),
	}
}

type engineHarness struct {
	engine  *Engine
	metrics *testutils.RecordingMetrics
	out     *bytes.Buffer
	sink    *sink.JSONLSink
}

func newEngineHarness(t *testing.T, mutate func(cfg *Config)) *engineHarness {
	t.Helper()
	ctx := context.Background()

	cfg, err := newLoader(t).Defaults()
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, newLoader(t).Validate(cfg))

	metrics := testutils.NewRecordingMetrics()
	src, err := NewPoseSource(ctx, cfg.Sources, metrics, nil)
	require.NoError(t, err)
	services, err := NewServices(ctx, cfg, src)
	require.NoError(t, err)

	pipeline, err := BuildPipeline(cfg, NewDefaultUnitRegistry(services.Dependencies()), metrics)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	jsonl := sink.NewJSONLSink(out)
	engine, err := NewEngine(pipeline, EngineOptions{
		Sink:        jsonl,
		Metrics:     metrics,
		Logger:      zaptest.NewLogger(t),
		Concurrency: cfg.Concurrency.Complexes,
		ModelName:   services.Model.Name(),
	})
	require.NoError(t, err)
	return &engineHarness{engine: engine, metrics: metrics, out: out, sink: jsonl}
}

func TestEngine_EndToEnd(t *testing.T) {
	poses := writePoseFixtures(t)
	h := newEngineHarness(t, nil)

	records := []domain.DatasetRecord{
		{
			ID:         "c1",
			Poses:      []string{poses.loose, poses.tight, poses.single, poses.missing},
			Conditions: map[string]any{"pH": 6.5},
			Label:      &domain.Label{NativePose: poses.tight},
		},
		{ID: "c2", Poses: []string{poses.single}},
	}

	report, err := h.engine.Run(context.Background(), records)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Outcomes, 2)

	c1 := report.Outcomes[0]
	require.Len(t, c1.Checks, 4)
	assert.True(t, c1.Checks[0].Pass())
	assert.True(t, c1.Checks[1].Pass())
	assert.False(t, c1.Checks[2].Pass())
	assert.False(t, c1.Checks[3].FileExists)

	require.Len(t, c1.Predictions.Scores, 2, "only passing poses are scored")
	assert.Equal(t, "c1", c1.Predictions.ID)
	assert.Equal(t, poses.loose, c1.Predictions.Scores[0].Pose)
	assert.Equal(t, poses.tight, c1.Predictions.Scores[1].Pose)
	assert.InDelta(t, logistic(0.01), c1.Predictions.Scores[0].Score, 1e-12)
	assert.InDelta(t, logistic(0.03), c1.Predictions.Scores[1].Score, 1e-12)

	want, err := ensemble.Aggregate(c1.Predictions.Values(), domain.AggregationSoftmax, 1.0)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplexSummary{
		ID:       "c1",
		NPosesIn: 4,
		NPass:    2,
		Aggregate: domain.AggregateResult{
			ComplexID:   "c1",
			Method:      domain.AggregationSoftmax,
			Temperature: 1.0,
			Value:       want,
		},
	}, c1.Summary)

	c2 := report.Outcomes[1]
	assert.Empty(t, c2.Predictions.Scores)
	assert.Equal(t, 0, c2.Summary.NPass)
	assert.True(t, math.IsNaN(c2.Summary.Aggregate.Value))

	t.Run("native pose ranks first", func(t *testing.T) {
		assert.Equal(t, TopKResult{N: 1, Top1: 1, Top2: 1}, EvaluateTopK(records, report.Predictions()))
	})

	t.Run("predictions are streamed to the sink", func(t *testing.T) {
		require.NoError(t, h.sink.Close())
		sets, err := DecodePredictions(h.out)
		require.NoError(t, err)
		require.Len(t, sets, 2)
		assert.Equal(t, "c1", sets[0].ID)
		assert.Equal(t, c1.Predictions.Values(), sets[0].Values())
	})

	t.Run("metrics", func(t *testing.T) {
		assert.Equal(t, 2.0, h.metrics.Sum(ports.MetricPosesChecked, map[string]string{"result": "pass"}))
		assert.Equal(t, 3.0, h.metrics.Sum(ports.MetricPosesChecked, map[string]string{"result": "fail"}))
		assert.Equal(t, 2.0, h.metrics.Sum(ports.MetricComplexesScored, map[string]string{"status": "success"}))
		assert.Len(t, h.metrics.Calls(ports.MetricPoseScore), 2)
		assert.Len(t, h.metrics.Calls(ports.MetricAggregateScore), 1, "NaN aggregates are not observed")
		assert.Equal(t, 8.0, h.metrics.Sum(ports.MetricUnitExecutions, nil))
	})

	t.Run("summaries", func(t *testing.T) {
		summaries := report.Summaries()
		require.Len(t, summaries, 2)
		assert.Equal(t, c1.Summary, summaries[0])
	})
}

func TestEngine_GateDisabledScoresEveryPose(t *testing.T) {
	poses := writePoseFixtures(t)
	h := newEngineHarness(t, func(cfg *Config) {
		gate := false
		cfg.Validation.Gate = &gate
		cfg.Aggregation.Method = "best"
	})

	report, err := h.engine.Run(context.Background(), []domain.DatasetRecord{
		{ID: "c1", Poses: []string{poses.loose, poses.single, poses.missing}},
	})
	require.NoError(t, err)

	set := report.Outcomes[0].Predictions
	require.Len(t, set.Scores, 3)
	assert.Equal(t, 0.5, set.Scores[1].Score, "degenerate poses score on their flag vector")
	assert.Equal(t, 0.5, set.Scores[2].Score)
	assert.Equal(t, 1, report.Outcomes[0].Summary.NPass)
	assert.InDelta(t, logistic(0.01), report.Outcomes[0].Summary.Aggregate.Value, 1e-12)
}

func TestEngine_PreservesDatasetOrder(t *testing.T) {
	poses := writePoseFixtures(t)
	h := newEngineHarness(t, func(cfg *Config) { cfg.Concurrency.Complexes = 4 })

	records := make([]domain.DatasetRecord, 12)
	for i := range records {
		paths := []string{poses.loose}
		if i%2 == 0 {
			paths = append(paths, poses.tight)
		}
		records[i] = domain.DatasetRecord{ID: fmt.Sprintf("c%02d", i), Poses: paths}
	}

	report, err := h.engine.Run(context.Background(), records)
	require.NoError(t, err)
	for i, o := range report.Outcomes {
		assert.Equal(t, records[i].ID, o.Summary.ID)
		assert.Equal(t, len(records[i].Poses), len(o.Predictions.Scores))
	}
}

func TestEngine_Failures(t *testing.T) {
	t.Run("invalid conditions fail the complex", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		_, err := h.engine.Run(context.Background(), []domain.DatasetRecord{
			{ID: "bad", Conditions: map[string]any{"pH": "acidic"}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "complex bad")
		assert.Equal(t, 1.0, h.metrics.Sum(ports.MetricComplexesScored, map[string]string{"status": "error"}))
	})

	t.Run("cancelled context", func(t *testing.T) {
		poses := writePoseFixtures(t)
		h := newEngineHarness(t, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := h.engine.Run(ctx, []domain.DatasetRecord{{ID: "c1", Poses: []string{poses.loose}}})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil pipeline", func(t *testing.T) {
		_, err := NewEngine(nil, EngineOptions{})
		assert.Error(t, err)
	})
}

func TestNewServices_LearnedModelUnavailable(t *testing.T) {
	cfg, err := newLoader(t).Defaults()
	require.NoError(t, err)
	cfg.Model.Kind = "learned"
	cfg.Model.Path = filepath.Join(t.TempDir(), "absent.yaml")

	src, err := NewPoseSource(context.Background(), cfg.Sources, nil, nil)
	require.NoError(t, err)
	_, err = NewServices(context.Background(), cfg, src)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestInspectPoses(t *testing.T) {
	poses := writePoseFixtures(t)
	cfg, err := newLoader(t).Defaults()
	require.NoError(t, err)
	src, err := NewPoseSource(context.Background(), cfg.Sources, nil, nil)
	require.NoError(t, err)
	services, err := NewServices(context.Background(), cfg, src)
	require.NoError(t, err)

	reports, err := InspectPoses(context.Background(), services.Checker, services.Featurizer,
		[]string{poses.tight, poses.single, poses.missing}, 2)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.True(t, reports[0].Validation.Pass())
	assert.False(t, reports[0].Features.IsDegenerate())
	assert.Equal(t, 3.0, reports[0].Features.Vector().GetOr(domain.FeatureSaltBridges, -1))

	assert.False(t, reports[1].Validation.Pass())
	assert.Equal(t, domain.DegenerateSingleChain, reports[1].Features.Degenerate)

	assert.False(t, reports[2].Validation.FileExists)
	assert.Equal(t, domain.DegenerateMissingFile, reports[2].Features.Degenerate)
}
