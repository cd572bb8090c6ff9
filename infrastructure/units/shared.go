// Package units provides the pose-scoring pipeline stages that implement
// ports.Unit: pose validation, featurization, scoring and aggregation.
package units

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Dependency keys understood by the Create* constructors. Values under
// these keys are collaborators, not parameters, and are never decoded.
const (
	DepChecker             = "checker"
	DepFeaturizer          = "featurizer"
	DepConditionFeaturizer = "condition_featurizer"
	DepModel               = "model"
)

// Common errors returned by units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrMissingDependency is returned when a unit is created without a
	// required collaborator.
	ErrMissingDependency = errors.New("missing unit dependency")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// DefaultMaxConcurrency bounds per-pose work inside a unit.
func DefaultMaxConcurrency() int { return runtime.NumCPU() }

// decodeParameters overlays the parameters in config onto dst, which must
// already hold defaults. Dependency keys are skipped.
func decodeParameters(config map[string]any, dst any) error {
	params := make(map[string]any, len(config))
	for k, v := range config {
		switch k {
		case DepChecker, DepFeaturizer, DepConditionFeaturizer, DepModel:
			continue
		}
		params[k] = v
	}
	if len(params) == 0 {
		return nil
	}

	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// dependency extracts a typed collaborator from config.
func dependency[T any](config map[string]any, key string) (T, error) {
	dep, ok := config[key].(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrMissingDependency, key)
	}
	return dep, nil
}
