package application

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// EngineOptions configures an Engine. Every field is optional.
type EngineOptions struct {
	// Sink receives each prediction set as soon as its complex is scored.
	Sink ports.PredictionSink

	// Metrics records pose, complex and score metrics.
	Metrics ports.MetricsCollector

	// Logger receives run progress. Nil disables logging.
	Logger *zap.Logger

	// Concurrency bounds how many complexes are scored at once.
	Concurrency int

	// ModelName labels score metrics.
	ModelName string

	// RunID identifies the run; a random UUID is used when empty.
	RunID string
}

// Engine scores dataset records by running the scoring pipeline once per
// complex.
type Engine struct {
	pipeline    *Pipeline
	sink        ports.PredictionSink
	metrics     ports.MetricsCollector
	logger      *zap.Logger
	concurrency int
	modelName   string
	runID       string
}

// NewEngine creates an Engine around a built pipeline.
func NewEngine(pipeline *Pipeline, opts EngineOptions) (*Engine, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		pipeline:    pipeline,
		sink:        opts.Sink,
		metrics:     opts.Metrics,
		logger:      logger,
		concurrency: concurrency,
		modelName:   opts.ModelName,
		runID:       opts.RunID,
	}, nil
}

// ComplexOutcome is everything the pipeline produced for one complex.
type ComplexOutcome struct {
	Record      domain.DatasetRecord
	Checks      []domain.ValidationResult
	Predictions domain.PredictionSet
	Summary     domain.ComplexSummary
}

// RunReport collects the outcomes of a run in dataset order.
type RunReport struct {
	RunID    string
	Outcomes []ComplexOutcome
	Duration time.Duration
}

// Summaries returns the per-complex summaries in dataset order.
func (r *RunReport) Summaries() []domain.ComplexSummary {
	out := make([]domain.ComplexSummary, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = o.Summary
	}
	return out
}

// Predictions returns the per-complex prediction sets in dataset order.
func (r *RunReport) Predictions() []domain.PredictionSet {
	out := make([]domain.PredictionSet, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = o.Predictions
	}
	return out
}

// Run scores every record. The first failing complex cancels the run and
// its error is returned; per-pose problems never fail a run.
func (e *Engine) Run(ctx context.Context, records []domain.DatasetRecord) (*RunReport, error) {
	runID := e.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := e.logger.With(zap.String("run_id", runID))
	logger.Info("scoring run started",
		zap.Int("complexes", len(records)),
		zap.Int("concurrency", e.concurrency),
		zap.String("model", e.modelName),
	)

	start := time.Now()
	outcomes := make([]ComplexOutcome, len(records))
	var inFlight atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			e.gauge(inFlight.Add(1))
			defer func() { e.gauge(inFlight.Add(-1)) }()

			out, err := e.scoreComplex(gctx, runID, rec)
			if err != nil {
				e.counter(ports.MetricComplexesScored, map[string]string{"status": "error"})
				return fmt.Errorf("complex %s: %w", rec.ID, err)
			}
			e.counter(ports.MetricComplexesScored, map[string]string{"status": "success"})
			logger.Debug("complex scored",
				zap.String("complex_id", rec.ID),
				zap.Int("poses", out.Summary.NPosesIn),
				zap.Int("passed", out.Summary.NPass),
				zap.Float64("aggregate", out.Summary.Aggregate.Value),
			)
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("scoring run failed", zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &RunReport{RunID: runID, Outcomes: outcomes, Duration: time.Since(start)}
	logger.Info("scoring run finished",
		zap.Int("complexes", len(outcomes)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (e *Engine) scoreComplex(ctx context.Context, runID string, rec domain.DatasetRecord) (ComplexOutcome, error) {
	conditions, err := domain.ConditionsFromRecord(rec.Conditions)
	if err != nil {
		return ComplexOutcome{}, err
	}

	state := domain.NewComplexState(runID, rec.ID, rec.Poses, conditions)
	state, err = e.pipeline.Execute(ctx, state)
	if err != nil {
		return ComplexOutcome{}, err
	}

	checks, _ := domain.Get(state, domain.KeyPoseChecks)
	predictions, ok := domain.Get(state, domain.KeyPredictions)
	if !ok {
		return ComplexOutcome{}, fmt.Errorf("pipeline %s produced no predictions", e.pipeline.ID())
	}
	aggregate, ok := domain.Get(state, domain.KeyAggregate)
	if !ok {
		return ComplexOutcome{}, fmt.Errorf("pipeline %s produced no aggregate", e.pipeline.ID())
	}

	nPass := 0
	for _, c := range checks {
		if c.Pass() {
			nPass++
		}
	}
	e.recordScores(checks, nPass, predictions, aggregate)

	if e.sink != nil {
		if err := e.sink.Write(ctx, predictions); err != nil {
			return ComplexOutcome{}, fmt.Errorf("write predictions: %w", err)
		}
	}

	return ComplexOutcome{
		Record:      rec,
		Checks:      checks,
		Predictions: predictions,
		Summary: domain.ComplexSummary{
			ID:        rec.ID,
			NPosesIn:  len(rec.Poses),
			NPass:     nPass,
			Aggregate: aggregate,
		},
	}, nil
}

func (e *Engine) recordScores(checks []domain.ValidationResult, nPass int, set domain.PredictionSet, agg domain.AggregateResult) {
	if e.metrics == nil {
		return
	}
	if nPass > 0 {
		e.metrics.RecordCounter(ports.MetricPosesChecked, float64(nPass), map[string]string{"result": "pass"})
	}
	if failed := len(checks) - nPass; failed > 0 {
		e.metrics.RecordCounter(ports.MetricPosesChecked, float64(failed), map[string]string{"result": "fail"})
	}
	for _, s := range set.Scores {
		e.metrics.RecordHistogram(ports.MetricPoseScore, s.Score, map[string]string{"model": e.modelName})
	}
	if !math.IsNaN(agg.Value) {
		e.metrics.RecordHistogram(ports.MetricAggregateScore, agg.Value, map[string]string{"method": agg.Method.String()})
	}
}

func (e *Engine) counter(name string, labels map[string]string) {
	if e.metrics != nil {
		e.metrics.RecordCounter(name, 1, labels)
	}
}

func (e *Engine) gauge(n int64) {
	if e.metrics != nil {
		e.metrics.RecordGauge(ports.MetricComplexesRunning, float64(n), map[string]string{"unit": ScoringPipelineID})
	}
}
