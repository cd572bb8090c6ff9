package units

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.Unit = (*FeatureUnit)(nil)

// FeatureUnit computes interface features for the admitted poses of a
// complex and the condition features of the complex itself.
//
// With Gate set, only poses whose validation report passes are admitted;
// otherwise every pose is. Results keep the input order of the admitted
// poses.
//
// State requirements:
//   - domain.KeyPosePaths
//   - domain.KeyPoseChecks when Gate is set
//   - domain.KeyConditions, optional; defaults apply when absent
//
// Produces domain.KeyInterfaceFeatures and domain.KeyConditionFeatures.
type FeatureUnit struct {
	name       string
	config     FeatureUnitConfig
	featurizer ports.InterfaceFeaturizer
	conditions ports.ConditionFeaturizer
}

// FeatureUnitConfig controls featurization.
type FeatureUnitConfig struct {
	// MaxConcurrency bounds the number of poses featurized at once.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" validate:"min=1"`

	// Gate restricts featurization to poses that passed validation.
	Gate bool `yaml:"gate" json:"gate"`
}

// DefaultFeatureUnitConfig gates on validation with one pose per CPU.
func DefaultFeatureUnitConfig() FeatureUnitConfig {
	return FeatureUnitConfig{MaxConcurrency: DefaultMaxConcurrency(), Gate: true}
}

// NewFeatureUnit creates a FeatureUnit.
func NewFeatureUnit(
	name string,
	featurizer ports.InterfaceFeaturizer,
	conditions ports.ConditionFeaturizer,
	config FeatureUnitConfig,
) (*FeatureUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	u := &FeatureUnit{name: name, config: config, featurizer: featurizer, conditions: conditions}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Name returns the unit identifier.
func (u *FeatureUnit) Name() string { return u.name }

// Execute featurizes the admitted poses.
func (u *FeatureUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	admitted, err := u.admitted(state)
	if err != nil {
		return state, err
	}

	results := make([]domain.FeatureResult, len(admitted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.config.MaxConcurrency)
	for i, path := range admitted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = u.featurizer.Features(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return state, fmt.Errorf("unit %s: %w", u.name, err)
	}
	if err := ctx.Err(); err != nil {
		return state, fmt.Errorf("unit %s: %w", u.name, err)
	}

	conditions, ok := domain.Get(state, domain.KeyConditions)
	if !ok {
		conditions = domain.DefaultConditions()
	}

	state = domain.With(state, domain.KeyInterfaceFeatures, results)
	return domain.With(state, domain.KeyConditionFeatures, u.conditions.ConditionFeatures(conditions)), nil
}

func (u *FeatureUnit) admitted(state domain.State) ([]string, error) {
	paths, ok := domain.Get(state, domain.KeyPosePaths)
	if !ok {
		return nil, fmt.Errorf("unit %s: pose paths not found in state", u.name)
	}
	if !u.config.Gate {
		return paths, nil
	}

	checks, ok := domain.Get(state, domain.KeyPoseChecks)
	if !ok {
		return nil, fmt.Errorf("unit %s: pose checks not found in state", u.name)
	}
	if len(checks) != len(paths) {
		return nil, fmt.Errorf("unit %s: mismatch between poses (%d) and pose checks (%d)",
			u.name, len(paths), len(checks))
	}

	out := make([]string, 0, len(paths))
	for i, path := range paths {
		if checks[i].Pass() {
			out = append(out, path)
		}
	}
	return out, nil
}

// Validate verifies the unit configuration.
func (u *FeatureUnit) Validate() error {
	if u.featurizer == nil {
		return fmt.Errorf("%w: %s", ErrMissingDependency, DepFeaturizer)
	}
	if u.conditions == nil {
		return fmt.Errorf("%w: %s", ErrMissingDependency, DepConditionFeaturizer)
	}
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters replaces the unit configuration from YAML.
func (u *FeatureUnit) UnmarshalParameters(params yaml.Node) error {
	config := DefaultFeatureUnitConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	u.config = config
	return nil
}

// CreateFeatureUnit builds a FeatureUnit from a configuration map. The
// collaborators are read from config[DepFeaturizer] and
// config[DepConditionFeaturizer].
func CreateFeatureUnit(id string, config map[string]any) (*FeatureUnit, error) {
	featurizer, err := dependency[ports.InterfaceFeaturizer](config, DepFeaturizer)
	if err != nil {
		return nil, err
	}
	conditions, err := dependency[ports.ConditionFeaturizer](config, DepConditionFeaturizer)
	if err != nil {
		return nil, err
	}
	cfg := DefaultFeatureUnitConfig()
	if err := decodeParameters(config, &cfg); err != nil {
		return nil, err
	}
	return NewFeatureUnit(id, featurizer, conditions, cfg)
}
