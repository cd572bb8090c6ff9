package application

import (
	"context"
	"fmt"

	"github.com/ahrav/go-posescore/infrastructure/ensemble"
	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// SweepGrid lists the solution conditions a sweep rescores under. Every
// pH value is combined with every ionic strength.
type SweepGrid struct {
	PH            []float64
	IonicStrength []float64
}

// DefaultSweepGrid covers pH 6.5 to 8.0 in seven even steps against low,
// physiological and high ionic strength.
func DefaultSweepGrid() SweepGrid {
	return SweepGrid{
		PH:            Linspace(6.5, 8.0, 7),
		IonicStrength: []float64{0.05, 0.15, 0.30},
	}
}

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}
	step := (stop - start) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// Sweeper rescores the poses of existing predictions across a grid of
// solution conditions.
type Sweeper struct {
	featurizer  ports.InterfaceFeaturizer
	conditions  ports.ConditionFeaturizer
	model       ports.ScoringModel
	aggregator  domain.Aggregator
	grid        SweepGrid
	concurrency int
}

// NewSweeper creates a Sweeper that aggregates with softmax at T=1.
func NewSweeper(
	featurizer ports.InterfaceFeaturizer,
	conditions ports.ConditionFeaturizer,
	model ports.ScoringModel,
	grid SweepGrid,
	concurrency int,
) (*Sweeper, error) {
	if featurizer == nil || conditions == nil || model == nil {
		return nil, fmt.Errorf("sweeper requires a featurizer, a condition featurizer and a model")
	}
	return &Sweeper{
		featurizer:  featurizer,
		conditions:  conditions,
		model:       model,
		aggregator:  ensemble.Softmax{Temperature: 1.0},
		grid:        grid,
		concurrency: concurrency,
	}, nil
}

// Sweep returns one point per complex and grid cell, ordered by complex,
// then pH, then ionic strength. Interface features are computed once per
// pose and reused across the grid.
func (s *Sweeper) Sweep(ctx context.Context, sets []domain.PredictionSet) ([]domain.SweepPoint, error) {
	points := make([]domain.SweepPoint, 0, len(sets)*len(s.grid.PH)*len(s.grid.IonicStrength))
	for _, set := range sets {
		vectors, err := mapOrdered(ctx, s.concurrency, len(set.Scores), func(ctx context.Context, i int) (domain.FeatureVector, error) {
			return s.featurizer.Features(ctx, set.Scores[i].Pose).Vector(), nil
		})
		if err != nil {
			return nil, err
		}

		for _, ph := range s.grid.PH {
			for _, ionic := range s.grid.IonicStrength {
				cond := s.conditions.ConditionFeatures(domain.DefaultConditions().WithPH(ph).WithIonicStrength(ionic))
				scores := make([]float64, len(vectors))
				for i, fv := range vectors {
					scores[i] = s.model.Score(fv.Merge(cond))
				}
				value, err := s.aggregator.Aggregate(scores)
				if err != nil {
					return nil, fmt.Errorf("complex %s: %w", set.ID, err)
				}
				points = append(points, domain.SweepPoint{
					ID:            set.ID,
					PH:            ph,
					IonicStrength: ionic,
					Aggregate:     value,
				})
			}
		}
	}
	return points, nil
}
