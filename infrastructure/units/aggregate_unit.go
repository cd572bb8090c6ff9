package units

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-posescore/infrastructure/ensemble"
	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.Unit = (*AggregateUnit)(nil)

// AggregateUnit combines the pose scores of a complex into one value.
//
// State requirements:
//   - domain.KeyComplexID
//   - domain.KeyPredictions
//
// Produces domain.KeyAggregate. A complex with no scored poses aggregates
// to NaN.
type AggregateUnit struct {
	name       string
	config     AggregateConfig
	aggregator domain.Aggregator
}

// AggregateConfig selects the aggregation rule.
type AggregateConfig struct {
	// Method is one of best, mean or softmax.
	Method string `yaml:"method" json:"method" validate:"required"`

	// Temperature is used by softmax and floored at ensemble.MinTemperature.
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// DefaultAggregateConfig aggregates with softmax at temperature 1.
func DefaultAggregateConfig() AggregateConfig {
	return AggregateConfig{Method: string(domain.AggregationSoftmax), Temperature: 1.0}
}

// NewAggregateUnit creates an AggregateUnit. An unknown method fails with
// domain.ErrUnknownAggregationMethod.
func NewAggregateUnit(name string, config AggregateConfig) (*AggregateUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	agg, err := newAggregator(config)
	if err != nil {
		return nil, err
	}
	return &AggregateUnit{name: name, config: config, aggregator: agg}, nil
}

func newAggregator(config AggregateConfig) (domain.Aggregator, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	method, err := ensemble.ParseMethod(config.Method)
	if err != nil {
		return nil, err
	}
	return ensemble.New(method, config.Temperature)
}

// Name returns the unit identifier.
func (u *AggregateUnit) Name() string { return u.name }

// Execute aggregates domain.KeyPredictions.
func (u *AggregateUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	set, ok := domain.Get(state, domain.KeyPredictions)
	if !ok {
		return state, fmt.Errorf("unit %s: predictions not found in state", u.name)
	}
	complexID, _ := domain.Get(state, domain.KeyComplexID)

	value, err := u.aggregator.Aggregate(set.Values())
	if err != nil {
		return state, fmt.Errorf("unit %s: aggregation failed: %w", u.name, err)
	}

	return domain.With(state, domain.KeyAggregate, domain.AggregateResult{
		ComplexID:   complexID,
		Method:      u.aggregator.Method(),
		Temperature: u.config.Temperature,
		Value:       value,
	}), nil
}

// Validate verifies the aggregation method.
func (u *AggregateUnit) Validate() error {
	_, err := newAggregator(u.config)
	return err
}

// UnmarshalParameters replaces the unit configuration from YAML. The
// configuration is unchanged on error.
func (u *AggregateUnit) UnmarshalParameters(params yaml.Node) error {
	config := DefaultAggregateConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	agg, err := newAggregator(config)
	if err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	u.config, u.aggregator = config, agg
	return nil
}

// CreateAggregateUnit builds an AggregateUnit from a configuration map.
func CreateAggregateUnit(id string, config map[string]any) (*AggregateUnit, error) {
	cfg := DefaultAggregateConfig()
	if err := decodeParameters(config, &cfg); err != nil {
		return nil, err
	}
	return NewAggregateUnit(id, cfg)
}
