package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-posescore/infrastructure/ensemble"
	"github.com/ahrav/go-posescore/internal/domain"
)

const defaultKafkaBatchTimeout = 100 * time.Millisecond

// ConfigLoader decodes, completes and validates run configuration.
type ConfigLoader struct {
	validator *validator.Validate
}

// NewConfigLoader creates a loader with the custom validation tags
// registered.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := RegisterConfigValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &ConfigLoader{validator: v}, nil
}

// LoadFromFile reads the configuration at path.
func (cl *ConfigLoader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return cl.load(data)
}

// LoadFromReader reads the configuration from r.
func (cl *ConfigLoader) LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cl.load(data)
}

// Defaults returns the validated default configuration.
func (cl *ConfigLoader) Defaults() (*Config, error) {
	return cl.load(nil)
}

func (cl *ConfigLoader) load(data []byte) (*Config, error) {
	var config Config
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: failed to parse YAML: %v", domain.ErrInvalidConfiguration, err)
		}
	}

	if err := cl.complete(&config); err != nil {
		return nil, err
	}
	if err := cl.Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// complete fills zero-valued fields with their defaults. Residue classes
// are filled per class so a file may override one class only.
func (cl *ConfigLoader) complete(config *Config) error {
	if err := defaults.Set(config); err != nil {
		return fmt.Errorf("%w: failed to apply defaults: %v", domain.ErrInvalidConfiguration, err)
	}
	if config.Concurrency.Poses == 0 {
		config.Concurrency.Poses = runtime.NumCPU()
	}
	def := DefaultConfig()
	res := &config.Features.Residues
	if len(res.Hydrophobic) == 0 {
		res.Hydrophobic = def.Features.Residues.Hydrophobic
	}
	if len(res.Positive) == 0 {
		res.Positive = def.Features.Residues.Positive
	}
	if len(res.Negative) == 0 {
		res.Negative = def.Features.Residues.Negative
	}
	return nil
}

// Validate checks config against its struct tags and cross-field rules.
// An unknown aggregation method fails with
// domain.ErrUnknownAggregationMethod; other violations match
// domain.ErrInvalidConfiguration.
func (cl *ConfigLoader) Validate(config *Config) error {
	if err := cl.validator.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			ve := domain.NewValidationError("config")
			for _, fe := range verrs {
				if fe.Tag() == "aggmethod" {
					_, err := ensemble.ParseMethod(fmt.Sprint(fe.Value()))
					return err
				}
				ve.AddError(fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return ve
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	if err := config.Features.Validate(); err != nil {
		return err
	}
	return config.Model.Validate()
}
