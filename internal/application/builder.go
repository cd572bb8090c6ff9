package application

import (
	"fmt"

	"github.com/ahrav/go-posescore/infrastructure/middleware"
	"github.com/ahrav/go-posescore/internal/ports"
)

// ScoringPipelineID names the per-complex scoring pipeline.
const ScoringPipelineID = "complex_scoring"

// stage is one entry of the scoring pipeline layout.
type stage struct {
	unitType string
	params   map[string]any
}

// stages lays out the scoring pipeline for cfg: validate every pose,
// featurize the admitted ones, score them and aggregate per complex.
func stages(cfg *Config) []stage {
	return []stage{
		{UnitTypePoseCheck, map[string]any{
			"max_concurrency": cfg.Concurrency.Poses,
		}},
		{UnitTypeFeatures, map[string]any{
			"max_concurrency": cfg.Concurrency.Poses,
			"gate":            cfg.Validation.GateEnabled(),
		}},
		{UnitTypeScore, nil},
		{UnitTypeAggregate, map[string]any{
			"method":      cfg.Aggregation.Method,
			"temperature": cfg.Aggregation.Temperature,
		}},
	}
}

// BuildPipeline creates the scoring pipeline from cfg using registry. When
// metrics is non-nil every unit is wrapped with tracing and metrics.
func BuildPipeline(cfg *Config, registry ports.UnitRegistry, metrics ports.MetricsCollector) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	built := make([]ports.Unit, 0, 4)
	for _, s := range stages(cfg) {
		unit, err := registry.CreateUnit(s.unitType, s.unitType, s.params)
		if err != nil {
			return nil, err
		}
		built = append(built, unit)
	}
	if metrics != nil {
		built = middleware.Instrument(built, metrics)
	}

	p := NewPipeline(ScoringPipelineID)
	for _, u := range built {
		if err := p.Add(u); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
