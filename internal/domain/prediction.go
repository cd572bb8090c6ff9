package domain

import "math"

// ScoredPose pairs a pose identifier with its model score.
type ScoredPose struct {
	Pose  string  `json:"pose"`
	Score float64 `json:"score"`
}

// PredictionSet holds the scored poses of one complex in input order. It is
// produced once per complex and never mutated afterwards.
type PredictionSet struct {
	ID     string       `json:"id"`
	Scores []ScoredPose `json:"scores"`
}

// Values returns the raw scores in pose order.
func (p PredictionSet) Values() []float64 {
	out := make([]float64, len(p.Scores))
	for i, s := range p.Scores {
		out[i] = s.Score
	}
	return out
}

// AggregateResult is the single per-complex prediction. Value is NaN iff
// no pose scores were aggregated.
type AggregateResult struct {
	ComplexID   string            `json:"id"`
	Method      AggregationMethod `json:"method"`
	Temperature float64           `json:"temperature"`
	Value       float64           `json:"value"`
}

// ComplexSummary reports pass/fail counts next to the aggregate of one
// complex.
type ComplexSummary struct {
	ID        string
	NPosesIn  int
	NPass     int
	Aggregate AggregateResult
}

// PassRate returns the fraction of input poses that passed validation,
// or NaN when the complex had no poses.
func (s ComplexSummary) PassRate() float64 {
	if s.NPosesIn == 0 {
		return math.NaN()
	}
	return float64(s.NPass) / float64(s.NPosesIn)
}

// Label carries the known-good pose of a training or benchmark complex.
type Label struct {
	NativePose string `json:"native_pose,omitempty" yaml:"native_pose,omitempty"`
}

// DatasetRecord describes one complex to score: its candidate poses and the
// conditions to score them under.
type DatasetRecord struct {
	ID         string         `json:"id" yaml:"id" validate:"required"`
	Poses      []string       `json:"poses" yaml:"poses"`
	Conditions map[string]any `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Label      *Label         `json:"label,omitempty" yaml:"label,omitempty"`
}

// NativePose returns the labelled native pose, or "" when unlabelled.
func (r DatasetRecord) NativePose() string {
	if r.Label == nil {
		return ""
	}
	return r.Label.NativePose
}

// SweepPoint is the aggregate of one complex rescored under one grid point
// of solution conditions.
type SweepPoint struct {
	ID            string
	PH            float64
	IonicStrength float64
	Aggregate     float64
}
