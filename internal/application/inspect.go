package application

import (
	"context"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// PoseReport is the validation report and interface features of one pose.
type PoseReport struct {
	Pose       string                  `json:"pose"`
	Validation domain.ValidationResult `json:"validation"`
	Features   domain.FeatureResult    `json:"features"`
}

// InspectPoses validates and featurizes every path, in input order.
// Features are computed whether or not the pose passes validation.
func InspectPoses(
	ctx context.Context,
	checker ports.PoseChecker,
	featurizer ports.InterfaceFeaturizer,
	paths []string,
	concurrency int,
) ([]PoseReport, error) {
	return mapOrdered(ctx, concurrency, len(paths), func(ctx context.Context, i int) (PoseReport, error) {
		return PoseReport{
			Pose:       paths[i],
			Validation: checker.Check(ctx, paths[i]),
			Features:   featurizer.Features(ctx, paths[i]),
		}, nil
	})
}
