package units

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.Unit = (*PoseCheckUnit)(nil)

// PoseCheckUnit validates every candidate pose of a complex. Poses are
// checked concurrently and reports keep the input order.
//
// State requirements:
//   - domain.KeyPosePaths
//
// Produces domain.KeyPoseChecks with one report per pose. A bad pose
// yields a failing report, never an error.
type PoseCheckUnit struct {
	name    string
	config  PoseCheckConfig
	checker ports.PoseChecker
}

// PoseCheckConfig controls pose validation.
type PoseCheckConfig struct {
	// MaxConcurrency bounds the number of poses checked at once.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" validate:"min=1"`
}

// DefaultPoseCheckConfig checks one pose per CPU.
func DefaultPoseCheckConfig() PoseCheckConfig {
	return PoseCheckConfig{MaxConcurrency: DefaultMaxConcurrency()}
}

// NewPoseCheckUnit creates a PoseCheckUnit.
func NewPoseCheckUnit(name string, checker ports.PoseChecker, config PoseCheckConfig) (*PoseCheckUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if checker == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDependency, DepChecker)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &PoseCheckUnit{name: name, config: config, checker: checker}, nil
}

// Name returns the unit identifier.
func (u *PoseCheckUnit) Name() string { return u.name }

// Execute checks every pose in domain.KeyPosePaths.
func (u *PoseCheckUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	paths, ok := domain.Get(state, domain.KeyPosePaths)
	if !ok {
		return state, fmt.Errorf("unit %s: pose paths not found in state", u.name)
	}

	checks := make([]domain.ValidationResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.config.MaxConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			checks[i] = u.checker.Check(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return state, fmt.Errorf("unit %s: %w", u.name, err)
	}
	// A checker folds cancellation into a failing report; do not keep it.
	if err := ctx.Err(); err != nil {
		return state, fmt.Errorf("unit %s: %w", u.name, err)
	}

	return domain.With(state, domain.KeyPoseChecks, checks), nil
}

// Validate verifies the unit configuration.
func (u *PoseCheckUnit) Validate() error {
	if u.checker == nil {
		return fmt.Errorf("%w: %s", ErrMissingDependency, DepChecker)
	}
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters replaces the unit configuration from YAML. The
// configuration is unchanged on error.
func (u *PoseCheckUnit) UnmarshalParameters(params yaml.Node) error {
	config := DefaultPoseCheckConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	u.config = config
	return nil
}

// CreatePoseCheckUnit builds a PoseCheckUnit from a configuration map. The
// checker is read from config[DepChecker].
func CreatePoseCheckUnit(id string, config map[string]any) (*PoseCheckUnit, error) {
	checker, err := dependency[ports.PoseChecker](config, DepChecker)
	if err != nil {
		return nil, err
	}
	cfg := DefaultPoseCheckConfig()
	if err := decodeParameters(config, &cfg); err != nil {
		return nil, err
	}
	return NewPoseCheckUnit(id, checker, cfg)
}
