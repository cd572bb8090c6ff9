// Package scoring provides the pose scoring models: a fixed logistic
// baseline over the buried-surface proxy and a learned gradient-boosted
// tree ensemble loaded from an artifact.
package scoring

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-posescore/internal/domain"
)

var validate = validator.New()

// Model kinds understood by the registry.
const (
	KindDummy   = "dummy"
	KindLearned = "learned"
)

// DefaultLogisticScale is the slope of the dummy model's logistic curve.
const DefaultLogisticScale = 0.01

// Config selects and parameterizes the scoring model. The kind is resolved
// once at startup; nothing probes for model files implicitly.
type Config struct {
	// Kind names the model implementation.
	Kind string `yaml:"kind" json:"kind" default:"dummy" validate:"required"`

	// Path locates the learned model artifact. Remote identifiers such as
	// s3://bucket/key are resolved through the configured source.
	Path string `yaml:"path" json:"path" validate:"required_if=Kind learned"`

	// LogisticScale is the slope used by the dummy model.
	LogisticScale float64 `yaml:"logistic_scale" json:"logistic_scale" default:"0.01" validate:"gt=0"`
}

// DefaultConfig returns a configuration selecting the dummy model.
func DefaultConfig() Config {
	return Config{
		Kind:          KindDummy,
		LogisticScale: DefaultLogisticScale,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: model: %v", domain.ErrInvalidConfiguration, err)
	}
	return nil
}
