// Package application provides the orchestration of a scoring run: its
// configuration, the per-complex pipeline and the batch operations built on
// it.
package application

import (
	"runtime"

	"github.com/ahrav/go-posescore/infrastructure/features"
	"github.com/ahrav/go-posescore/infrastructure/logging"
	"github.com/ahrav/go-posescore/infrastructure/posecheck"
	"github.com/ahrav/go-posescore/infrastructure/scoring"
	"github.com/ahrav/go-posescore/infrastructure/sink"
)

// Config is the complete configuration of a scoring run. It is decoded from
// YAML, completed with defaults and validated by ConfigLoader.
type Config struct {
	// Log configures structured logging.
	Log logging.Config `yaml:"log" json:"log"`

	// Concurrency bounds parallel work.
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`

	// Features holds the geometric thresholds and residue classes of
	// interface featurization.
	Features features.Config `yaml:"features" json:"features"`

	// Validation configures pose plausibility checks.
	Validation ValidationConfig `yaml:"validation" json:"validation"`

	// Model selects the scoring model.
	Model scoring.Config `yaml:"model" json:"model"`

	// Aggregation selects how pose scores combine per complex.
	Aggregation AggregationConfig `yaml:"aggregation" json:"aggregation"`

	// Sources configures remote pose and artifact sources.
	Sources SourcesConfig `yaml:"sources" json:"sources"`

	// Sinks configures where prediction records are published besides the
	// output file.
	Sinks SinksConfig `yaml:"sinks" json:"sinks"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ConcurrencyConfig bounds parallel work. Poses bounds per-pose work within
// one complex; Complexes bounds how many complexes run at once.
type ConcurrencyConfig struct {
	Poses     int `yaml:"poses" json:"poses" validate:"gte=1"`
	Complexes int `yaml:"complexes" json:"complexes" default:"1" validate:"gte=1"`
}

// ValidationConfig configures pose validation.
type ValidationConfig struct {
	// MinAtomsPerChain is the minimum atom count of every chain.
	MinAtomsPerChain int `yaml:"min_atoms_per_chain" json:"min_atoms_per_chain" default:"2" validate:"gte=1"`

	// Gate restricts featurization and scoring to poses that pass
	// validation.
	Gate *bool `yaml:"gate" json:"gate" default:"true"`
}

// GateEnabled reports whether validation gates scoring.
func (v ValidationConfig) GateEnabled() bool {
	return v.Gate == nil || *v.Gate
}

// AggregationConfig selects the aggregation rule.
type AggregationConfig struct {
	Method      string  `yaml:"method" json:"method" default:"softmax" validate:"required,aggmethod"`
	Temperature float64 `yaml:"temperature" json:"temperature" default:"1.0"`

	// SummarizeMethod is the rule used when summarizing existing
	// predictions. It defaults to best, the top plausible pose.
	SummarizeMethod string `yaml:"summarize_method" json:"summarize_method" default:"best" validate:"required,aggmethod"`
}

// ForSummarize returns the aggregation used by summarize.
func (a AggregationConfig) ForSummarize() AggregationConfig {
	return AggregationConfig{Method: a.SummarizeMethod, Temperature: a.Temperature, SummarizeMethod: a.SummarizeMethod}
}

// SourcesConfig configures remote sources.
type SourcesConfig struct {
	S3 S3SourceConfig `yaml:"s3" json:"s3"`
}

// S3SourceConfig enables reading s3:// identifiers.
type S3SourceConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	Region            string  `yaml:"region" json:"region" default:"us-east-1"`
	Endpoint          string  `yaml:"endpoint" json:"endpoint" validate:"omitempty,url"`
	PathStyle         bool    `yaml:"path_style" json:"path_style"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" default:"50" validate:"gt=0"`
	Burst             int     `yaml:"burst" json:"burst" default:"10" validate:"gte=1"`
}

// SinksConfig configures prediction sinks.
type SinksConfig struct {
	Kafka sink.KafkaConfig `yaml:"kafka" json:"kafka"`
}

// MetricsConfig configures metrics exposition.
type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint; empty disables
	// it.
	Addr string `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	gate := true
	return Config{
		Log:         logging.Config{Level: "info", Format: "console"},
		Concurrency: ConcurrencyConfig{Poses: runtime.NumCPU(), Complexes: 1},
		Features:    features.DefaultConfig(),
		Validation: ValidationConfig{
			MinAtomsPerChain: posecheck.DefaultMinAtomsPerChain,
			Gate:             &gate,
		},
		Model:       scoring.DefaultConfig(),
		Aggregation: AggregationConfig{Method: "softmax", Temperature: 1.0, SummarizeMethod: "best"},
		Sources: SourcesConfig{S3: S3SourceConfig{
			Region:            "us-east-1",
			RequestsPerSecond: 50,
			Burst:             10,
		}},
		Sinks: SinksConfig{Kafka: sink.KafkaConfig{
			Topic:        "pose-predictions",
			BatchTimeout: defaultKafkaBatchTimeout,
			MaxAttempts:  3,
		}},
	}
}
