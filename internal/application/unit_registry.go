package application

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ahrav/go-posescore/infrastructure/units"
	"github.com/ahrav/go-posescore/internal/ports"
)

// Unit types known to the default registry.
const (
	UnitTypePoseCheck = "pose_check"
	UnitTypeFeatures  = "interface_features"
	UnitTypeScore     = "score"
	UnitTypeAggregate = "aggregate"
)

// Verify interface compliance at compile time.
var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// Dependencies are the collaborators injected into units that need them.
type Dependencies struct {
	Checker    ports.PoseChecker
	Featurizer ports.InterfaceFeaturizer
	Conditions ports.ConditionFeaturizer
	Model      ports.ScoringModel
}

// DefaultUnitRegistry creates pipeline units by type name. Factories
// receive a private copy of the parameter map with the registry's
// dependencies injected under the units.Dep* keys.
type DefaultUnitRegistry struct {
	factories map[string]ports.UnitFactory
	mu        sync.RWMutex
	deps      Dependencies
}

// NewDefaultUnitRegistry creates a registry with the four pipeline stages
// registered against deps.
func NewDefaultUnitRegistry(deps Dependencies) *DefaultUnitRegistry {
	r := &DefaultUnitRegistry{
		factories: make(map[string]ports.UnitFactory),
		deps:      deps,
	}
	r.registerBuiltinFactories()
	return r
}

func (r *DefaultUnitRegistry) registerBuiltinFactories() {
	deps := r.deps

	r.factories[UnitTypePoseCheck] = func(id string, config map[string]any) (ports.Unit, error) {
		config[units.DepChecker] = deps.Checker
		return units.CreatePoseCheckUnit(id, config)
	}
	r.factories[UnitTypeFeatures] = func(id string, config map[string]any) (ports.Unit, error) {
		config[units.DepFeaturizer] = deps.Featurizer
		config[units.DepConditionFeaturizer] = deps.Conditions
		return units.CreateFeatureUnit(id, config)
	}
	r.factories[UnitTypeScore] = func(id string, config map[string]any) (ports.Unit, error) {
		config[units.DepModel] = deps.Model
		return units.CreateScoreUnit(id, config)
	}
	r.factories[UnitTypeAggregate] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateAggregateUnit(id, config)
	}
}

// CreateUnit creates a unit of unitType. The caller's config map is never
// modified.
func (r *DefaultUnitRegistry) CreateUnit(unitType string, id string, config map[string]any) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported unit type: %s", unitType)
	}
	if id == "" {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}

	params := make(map[string]any, len(config)+2)
	maps.Copy(params, config)

	unit, err := factory(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}
	return unit, nil
}

// RegisterUnitFactory registers or replaces the factory for unitType.
func (r *DefaultUnitRegistry) RegisterUnitFactory(unitType string, factory ports.UnitFactory) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[unitType] = factory
	return nil
}

// GetSupportedTypes returns the registered unit types in sorted order.
func (r *DefaultUnitRegistry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
