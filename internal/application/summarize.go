package application

import (
	"context"
	"fmt"

	"github.com/ahrav/go-posescore/infrastructure/ensemble"
	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// Summarizer filters existing predictions down to physically plausible
// poses and aggregates what remains.
type Summarizer struct {
	checker     ports.PoseChecker
	aggregator  domain.Aggregator
	temperature float64
	concurrency int
}

// NewSummarizer creates a Summarizer. An unknown aggregation method fails
// with domain.ErrUnknownAggregationMethod.
func NewSummarizer(checker ports.PoseChecker, aggregation AggregationConfig, concurrency int) (*Summarizer, error) {
	if checker == nil {
		return nil, fmt.Errorf("pose checker cannot be nil")
	}
	method, err := ensemble.ParseMethod(aggregation.Method)
	if err != nil {
		return nil, err
	}
	agg, err := ensemble.New(method, aggregation.Temperature)
	if err != nil {
		return nil, err
	}
	return &Summarizer{
		checker:     checker,
		aggregator:  agg,
		temperature: aggregation.Temperature,
		concurrency: concurrency,
	}, nil
}

// SummaryReport holds one summary and one filtered prediction set per
// input set, in input order.
type SummaryReport struct {
	Summaries []domain.ComplexSummary
	Filtered  []domain.PredictionSet
}

// Summarize re-checks every scored pose, keeps the passing ones and
// aggregates their scores. A complex with no passing pose aggregates to
// NaN.
func (s *Summarizer) Summarize(ctx context.Context, sets []domain.PredictionSet) (*SummaryReport, error) {
	report := &SummaryReport{
		Summaries: make([]domain.ComplexSummary, 0, len(sets)),
		Filtered:  make([]domain.PredictionSet, 0, len(sets)),
	}
	for _, set := range sets {
		checks, err := mapOrdered(ctx, s.concurrency, len(set.Scores), func(ctx context.Context, i int) (domain.ValidationResult, error) {
			return s.checker.Check(ctx, set.Scores[i].Pose), nil
		})
		if err != nil {
			return nil, err
		}

		kept := domain.PredictionSet{ID: set.ID, Scores: make([]domain.ScoredPose, 0, len(set.Scores))}
		for i, sp := range set.Scores {
			if checks[i].Pass() {
				kept.Scores = append(kept.Scores, sp)
			}
		}

		value, err := s.aggregator.Aggregate(kept.Values())
		if err != nil {
			return nil, fmt.Errorf("complex %s: %w", set.ID, err)
		}
		report.Filtered = append(report.Filtered, kept)
		report.Summaries = append(report.Summaries, domain.ComplexSummary{
			ID:       set.ID,
			NPosesIn: len(set.Scores),
			NPass:    len(kept.Scores),
			Aggregate: domain.AggregateResult{
				ComplexID:   set.ID,
				Method:      s.aggregator.Method(),
				Temperature: s.temperature,
				Value:       value,
			},
		})
	}
	return report, nil
}
