// Package posecheck decides whether a pose is physically plausible enough
// to be scored.
package posecheck

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahrav/go-posescore/infrastructure/pdb"
	"github.com/ahrav/go-posescore/internal/domain"
)

// DefaultMinAtomsPerChain is the smallest chain, in atoms, that passes.
const DefaultMinAtomsPerChain = 2

// Checker produces ValidationResults for pose sources.
// It is stateless apart from its configuration and safe for concurrent use.
type Checker struct {
	loader           *pdb.Loader
	minAtomsPerChain int
}

// NewChecker creates a Checker. minAtomsPerChain must be at least 1.
func NewChecker(loader *pdb.Loader, minAtomsPerChain int) (*Checker, error) {
	if minAtomsPerChain < 1 {
		return nil, fmt.Errorf("%w: min_atoms_per_chain must be >= 1, got %d",
			domain.ErrInvalidConfiguration, minAtomsPerChain)
	}
	return &Checker{loader: loader, minAtomsPerChain: minAtomsPerChain}, nil
}

// Check loads the pose at path and reports its validity.
func (c *Checker) Check(ctx context.Context, path string) domain.ValidationResult {
	res := domain.ValidationResult{PosePath: path}

	pose, err := c.loader.Load(ctx, path)
	if err != nil {
		res.FileExists = !errors.Is(err, domain.ErrFileMissing)
		return res
	}
	res.FileExists = true
	return c.checkPose(res, pose)
}

// CheckPose reports the validity of an already parsed pose.
func (c *Checker) CheckPose(pose *domain.Pose) domain.ValidationResult {
	return c.checkPose(domain.ValidationResult{PosePath: pose.Path, FileExists: true}, pose)
}

func (c *Checker) checkPose(res domain.ValidationResult, pose *domain.Pose) domain.ValidationResult {
	res.ParsedOK = true

	model, ok := pose.FirstModel()
	if !ok {
		return res
	}
	res.NChains = len(model.Chains)
	if res.NChains < 2 {
		return res
	}

	res.AtomsPerChainOK = true
	for _, chain := range model.Chains {
		if chain.AtomCount() < c.minAtomsPerChain {
			res.AtomsPerChainOK = false
			break
		}
	}
	res.TwoChainInterfaceOK = true
	return res
}
