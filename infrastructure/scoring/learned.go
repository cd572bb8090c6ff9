package scoring

import (
	"context"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// Artifact objectives.
const (
	// ObjectiveBinary maps the ensemble margin through a sigmoid to a
	// positive-class probability.
	ObjectiveBinary = "binary"

	// ObjectiveRaw returns the ensemble margin unchanged.
	ObjectiveRaw = "raw"
)

// Artifact is the persisted form of a gradient-boosted tree ensemble.
// JSON artifacts decode as well as YAML ones.
//
// Example:
//
//	objective: binary
//	feature_order: [contact_count_4A, clashes]
//	init_score: -0.2
//	learning_rate: 0.1
//	trees:
//	  - nodes:
//	      - {feature: 0, threshold: 10.5, left: 1, right: 2}
//	      - {leaf: true, value: -1.0}
//	      - {leaf: true, value: 1.0}
type Artifact struct {
	// Objective selects probability or raw output.
	Objective string `yaml:"objective" json:"objective" validate:"omitempty,oneof=binary raw"`

	// FeatureOrder lists the feature names in the positional order the
	// trees were fitted on. When empty, the order is the sorted names of
	// each scored vector.
	FeatureOrder []string `yaml:"feature_order" json:"feature_order" validate:"dive,required"`

	// InitScore is the ensemble's starting margin.
	InitScore float64 `yaml:"init_score" json:"init_score"`

	// LearningRate scales every tree's contribution.
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate" validate:"gt=0"`

	// Trees holds the fitted regression trees.
	Trees []Tree `yaml:"trees" json:"trees" validate:"required,min=1,dive"`
}

// Tree is a regression tree stored as a flat node list rooted at index 0.
type Tree struct {
	Nodes []Node `yaml:"nodes" json:"nodes" validate:"required,min=1,dive"`
}

// Node is either a split or a leaf. Splits send inputs with
// x[Feature] <= Threshold to Left and all others to Right.
type Node struct {
	Leaf      bool    `yaml:"leaf" json:"leaf"`
	Value     float64 `yaml:"value" json:"value"`
	Feature   int     `yaml:"feature" json:"feature" validate:"gte=0"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Left      int     `yaml:"left" json:"left"`
	Right     int     `yaml:"right" json:"right"`
}

// check verifies that every split points forward to an existing node,
// which rules out cycles, and that feature indices fit the recorded order.
func (t Tree) check(nFeatures int) error {
	for i, n := range t.Nodes {
		if n.Leaf {
			continue
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: children (%d, %d) out of range", i, n.Left, n.Right)
		}
		if nFeatures > 0 && n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature index %d exceeds %d features", i, n.Feature, nFeatures)
		}
	}
	return nil
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		var v float64
		if n.Feature < len(x) {
			v = x[n.Feature]
		}
		if v <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

var _ ports.ScoringModel = (*LearnedModel)(nil)

// LearnedModel scores poses with a gradient-boosted tree ensemble. It is
// immutable after loading.
type LearnedModel struct {
	artifact Artifact
}

// DecodeArtifact reads an artifact. A missing objective defaults to
// ObjectiveBinary.
func DecodeArtifact(r io.Reader) (Artifact, error) {
	var a Artifact
	if err := yaml.NewDecoder(r).Decode(&a); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Objective == "" {
		a.Objective = ObjectiveBinary
	}
	return a, nil
}

// NewLearnedModel validates a decoded artifact and wraps it. Invalid
// artifacts match domain.ErrModelUnavailable.
func NewLearnedModel(a Artifact) (*LearnedModel, error) {
	if a.Objective == "" {
		a.Objective = ObjectiveBinary
	}
	if err := validate.Struct(a); err != nil {
		return nil, fmt.Errorf("%w: invalid artifact: %v", domain.ErrModelUnavailable, err)
	}
	for i, t := range a.Trees {
		if err := t.check(len(a.FeatureOrder)); err != nil {
			return nil, fmt.Errorf("%w: invalid artifact: tree %d: %v", domain.ErrModelUnavailable, i, err)
		}
	}
	return &LearnedModel{artifact: a}, nil
}

// LoadLearnedModel opens the artifact at path through source and decodes
// it. Every failure matches domain.ErrModelUnavailable.
func LoadLearnedModel(ctx context.Context, source ports.PoseSource, path string) (*LearnedModel, error) {
	rc, err := source.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrModelUnavailable, path, err)
	}
	defer rc.Close()

	a, err := DecodeArtifact(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrModelUnavailable, path, err)
	}
	m, err := NewLearnedModel(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Score implements ports.ScoringModel.
func (m *LearnedModel) Score(fv domain.FeatureVector) float64 {
	margin := m.artifact.InitScore
	x := m.input(fv)
	for _, t := range m.artifact.Trees {
		margin += m.artifact.LearningRate * t.predict(x)
	}
	if m.artifact.Objective == ObjectiveRaw {
		return margin
	}
	return sigmoid(margin)
}

// Name implements ports.ScoringModel.
func (m *LearnedModel) Name() string { return KindLearned }

// FeatureOrder returns the positional feature names the model was fitted
// on, or nil when it falls back to sorted names.
func (m *LearnedModel) FeatureOrder() []string {
	return slices.Clone(m.artifact.FeatureOrder)
}

// input lays fv out positionally. Missing names read as 0.
func (m *LearnedModel) input(fv domain.FeatureVector) []float64 {
	order := m.artifact.FeatureOrder
	if len(order) == 0 {
		order = fv.Names()
		slices.Sort(order)
	}
	values := fv.Map()
	x := make([]float64, len(order))
	for i, name := range order {
		x[i] = values[name]
	}
	return x
}
