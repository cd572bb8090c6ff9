package units

import (
	"context"
	"fmt"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.Unit = (*ScoreUnit)(nil)

// ScoreUnit scores every featurized pose with the configured model.
//
// Each pose is scored on its interface vector followed by the condition
// vector. A degenerate pose is scored on its flag feature, so it still
// receives a score.
//
// State requirements:
//   - domain.KeyComplexID
//   - domain.KeyInterfaceFeatures
//   - domain.KeyConditionFeatures, optional
//
// Produces domain.KeyPredictions.
type ScoreUnit struct {
	name  string
	model ports.ScoringModel
}

// NewScoreUnit creates a ScoreUnit.
func NewScoreUnit(name string, model ports.ScoringModel) (*ScoreUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if model == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDependency, DepModel)
	}
	return &ScoreUnit{name: name, model: model}, nil
}

// Name returns the unit identifier.
func (u *ScoreUnit) Name() string { return u.name }

// Execute scores the featurized poses.
func (u *ScoreUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	results, ok := domain.Get(state, domain.KeyInterfaceFeatures)
	if !ok {
		return state, fmt.Errorf("unit %s: interface features not found in state", u.name)
	}
	complexID, _ := domain.Get(state, domain.KeyComplexID)
	conditions, _ := domain.Get(state, domain.KeyConditionFeatures)

	set := domain.PredictionSet{ID: complexID, Scores: make([]domain.ScoredPose, len(results))}
	for i, r := range results {
		set.Scores[i] = domain.ScoredPose{
			Pose:  r.PosePath,
			Score: u.model.Score(r.Vector().Merge(conditions)),
		}
	}
	return domain.With(state, domain.KeyPredictions, set), nil
}

// Validate verifies the unit has a model.
func (u *ScoreUnit) Validate() error {
	if u.model == nil {
		return fmt.Errorf("%w: %s", ErrMissingDependency, DepModel)
	}
	return nil
}

// CreateScoreUnit builds a ScoreUnit from a configuration map. The model
// is read from config[DepModel]; the unit takes no parameters.
func CreateScoreUnit(id string, config map[string]any) (*ScoreUnit, error) {
	model, err := dependency[ports.ScoringModel](config, DepModel)
	if err != nil {
		return nil, err
	}
	return NewScoreUnit(id, model)
}
