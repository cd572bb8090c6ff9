package ports

import (
	"context"

	"github.com/ahrav/go-posescore/internal/domain"
)

// ScoringModel maps a feature vector to a single pose score.
// Implementations are read-only after construction and safe for
// concurrent use.
type ScoringModel interface {
	// Score returns the model output for fv. Keys the model needs but fv
	// lacks are read as 0.0.
	Score(fv domain.FeatureVector) float64

	// Name identifies the model kind for logs and metrics.
	Name() string
}

// PoseChecker produces the validity report for one pose source.
type PoseChecker interface {
	Check(ctx context.Context, path string) domain.ValidationResult
}

// InterfaceFeaturizer computes inter-chain contact descriptors for one pose
// source. Every failure mode is folded into a degenerate result.
type InterfaceFeaturizer interface {
	Features(ctx context.Context, path string) domain.FeatureResult
}

// ConditionFeaturizer maps solution conditions to their feature vector.
// It is total: every Conditions value yields a vector with the same keys.
type ConditionFeaturizer interface {
	ConditionFeatures(c domain.Conditions) domain.FeatureVector
}

// ConditionFeaturizerFunc adapts a plain function to ConditionFeaturizer.
type ConditionFeaturizerFunc func(c domain.Conditions) domain.FeatureVector

// ConditionFeatures implements ConditionFeaturizer.
func (f ConditionFeaturizerFunc) ConditionFeatures(c domain.Conditions) domain.FeatureVector {
	return f(c)
}
