package scoring

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
	"github.com/ahrav/go-posescore/internal/testutils"
)

const stumpArtifact = `
objective: binary
feature_order: [contact_count_4A, clashes]
init_score: 0.5
learning_rate: 0.1
trees:
  - nodes:
      - {feature: 0, threshold: 10.0, left: 1, right: 2}
      - {leaf: true, value: -2.0}
      - {feature: 1, threshold: 0.5, left: 3, right: 4}
      - {leaf: true, value: 3.0}
      - {leaf: true, value: -1.0}
  - nodes:
      - {leaf: true, value: 1.0}
`

func TestDummyModel_Score(t *testing.T) {
	m := NewDummyModel(DefaultLogisticScale)

	tests := []struct {
		name string
		fv   domain.FeatureVector
		want float64
	}{
		{"zero", domain.FeatureVector{{Name: domain.FeatureApproxBuriedScore, Value: 0}}, 0.5},
		{"salt bridge pose", domain.FeatureVector{{Name: domain.FeatureApproxBuriedScore, Value: 1}}, 1 / (1 + math.Exp(-0.01))},
		{"hundred", domain.FeatureVector{{Name: domain.FeatureApproxBuriedScore, Value: 100}}, 1 / (1 + math.Exp(-1))},
		{"negative", domain.FeatureVector{{Name: domain.FeatureApproxBuriedScore, Value: -100}}, 1 / (1 + math.Exp(1))},
		{"missing feature", domain.FeatureVector{{Name: domain.FeatureClashes, Value: 3}}, 0.5},
		{"degenerate flag", domain.FeatureVector{{Name: string(domain.DegenerateNoInterfacePairs), Value: 1}}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Score(tt.fv), 1e-15)
		})
	}
	assert.Equal(t, KindDummy, m.Name())
}

func TestDummyModel_Monotonic(t *testing.T) {
	m := NewDummyModel(0)
	prev := -1.0
	for s := -500.0; s <= 500; s += 25 {
		got := m.Score(domain.FeatureVector{{Name: domain.FeatureApproxBuriedScore, Value: s}})
		assert.Greater(t, got, prev)
		assert.True(t, got > 0 && got < 1)
		prev = got
	}
}

func TestLearnedModel_Score(t *testing.T) {
	a, err := DecodeArtifact(strings.NewReader(stumpArtifact))
	require.NoError(t, err)
	m, err := NewLearnedModel(a)
	require.NoError(t, err)
	assert.Equal(t, KindLearned, m.Name())
	assert.Equal(t, []string{domain.FeatureContactCount, domain.FeatureClashes}, m.FeatureOrder())

	margin := func(leaf float64) float64 { return 0.5 + 0.1*leaf + 0.1*1.0 }

	tests := []struct {
		name string
		fv   domain.FeatureVector
		want float64
	}{
		{
			"few contacts",
			domain.FeatureVector{{Name: domain.FeatureContactCount, Value: 4}},
			sigmoid(margin(-2)),
		},
		{
			"threshold is inclusive on the left",
			domain.FeatureVector{{Name: domain.FeatureContactCount, Value: 10}},
			sigmoid(margin(-2)),
		},
		{
			"many contacts no clashes",
			domain.FeatureVector{{Name: domain.FeatureContactCount, Value: 30}, {Name: domain.FeatureClashes, Value: 0}},
			sigmoid(margin(3)),
		},
		{
			"many contacts with clashes",
			domain.FeatureVector{{Name: domain.FeatureClashes, Value: 2}, {Name: domain.FeatureContactCount, Value: 30}},
			sigmoid(margin(-1)),
		},
		{
			"missing features read as zero",
			domain.FeatureVector{{Name: domain.FeaturePH, Value: 7.4}},
			sigmoid(margin(-2)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Score(tt.fv), 1e-12)
		})
	}
}

func TestLearnedModel_RawObjective(t *testing.T) {
	a, err := DecodeArtifact(strings.NewReader(strings.Replace(stumpArtifact, "objective: binary", "objective: raw", 1)))
	require.NoError(t, err)
	m, err := NewLearnedModel(a)
	require.NoError(t, err)

	got := m.Score(domain.FeatureVector{{Name: domain.FeatureContactCount, Value: 30}})
	assert.InDelta(t, 0.5+0.3+0.1, got, 1e-12)
}

func TestLearnedModel_SortedOrderFallback(t *testing.T) {
	// Sorted names: [a, b]; the split reads b.
	m, err := NewLearnedModel(Artifact{
		LearningRate: 1,
		Trees: []Tree{{Nodes: []Node{
			{Feature: 1, Threshold: 0, Left: 1, Right: 2},
			{Leaf: true, Value: 0},
			{Leaf: true, Value: 5},
		}}},
	})
	require.NoError(t, err)
	assert.Nil(t, m.FeatureOrder())

	fv := domain.FeatureVector{{Name: "b", Value: 1}, {Name: "a", Value: -1}}
	assert.InDelta(t, sigmoid(5), m.Score(fv), 1e-12)
}

func TestLearnedModel_JSONArtifact(t *testing.T) {
	src := `{"objective":"raw","feature_order":["x"],"init_score":1,"learning_rate":0.5,
	"trees":[{"nodes":[{"leaf":true,"value":4}]}]}`
	a, err := DecodeArtifact(strings.NewReader(src))
	require.NoError(t, err)
	m, err := NewLearnedModel(a)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, m.Score(nil), 1e-12)
}

func TestNewLearnedModel_Invalid(t *testing.T) {
	leaf := []Node{{Leaf: true, Value: 1}}

	tests := []struct {
		name     string
		artifact Artifact
	}{
		{"no trees", Artifact{LearningRate: 0.1}},
		{"zero learning rate", Artifact{Trees: []Tree{{Nodes: leaf}}}},
		{"unknown objective", Artifact{Objective: "multiclass", LearningRate: 0.1, Trees: []Tree{{Nodes: leaf}}}},
		{"empty tree", Artifact{LearningRate: 0.1, Trees: []Tree{{}}}},
		{"self loop", Artifact{LearningRate: 0.1, Trees: []Tree{{Nodes: []Node{
			{Feature: 0, Left: 0, Right: 1}, {Leaf: true},
		}}}}},
		{"child out of range", Artifact{LearningRate: 0.1, Trees: []Tree{{Nodes: []Node{
			{Feature: 0, Left: 1, Right: 5}, {Leaf: true},
		}}}}},
		{"feature beyond order", Artifact{FeatureOrder: []string{"x"}, LearningRate: 0.1, Trees: []Tree{{Nodes: []Node{
			{Feature: 3, Left: 1, Right: 2}, {Leaf: true}, {Leaf: true},
		}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLearnedModel(tt.artifact)
			assert.ErrorIs(t, err, domain.ErrModelUnavailable)
		})
	}
}

func TestLoadLearnedModel(t *testing.T) {
	src := testutils.NewMemorySource(map[string]string{
		"models/gbt.yaml": stumpArtifact,
		"models/bad.yaml": "trees: [unterminated",
	})
	ctx := context.Background()

	m, err := LoadLearnedModel(ctx, src, "models/gbt.yaml")
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = LoadLearnedModel(ctx, src, "models/missing.yaml")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.ErrorIs(t, err, domain.ErrFileMissing)

	_, err = LoadLearnedModel(ctx, src, "models/bad.yaml")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestRegistry_Build(t *testing.T) {
	src := testutils.NewMemorySource(map[string]string{"gbt.yaml": stumpArtifact})
	r := NewRegistry(src)
	ctx := context.Background()

	assert.Equal(t, []string{KindDummy, KindLearned}, r.Kinds())

	m, err := r.Build(ctx, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, KindDummy, m.Name())

	m, err = r.Build(ctx, Config{Kind: "Learned", Path: "gbt.yaml", LogisticScale: 1})
	require.NoError(t, err)
	assert.Equal(t, KindLearned, m.Name())

	_, err = r.Build(ctx, Config{Kind: KindLearned, Path: "nope.yaml", LogisticScale: 1})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)

	_, err = r.Build(ctx, Config{Kind: KindLearned, LogisticScale: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration, "learned without path fails validation")

	_, err = r.Build(ctx, Config{Kind: "dumy", LogisticScale: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), `did you mean "dummy"`)

	_, err = r.Build(ctx, Config{Kind: "xgboost-remote", LogisticScale: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: dummy, learned")
}

type constModel float64

func (c constModel) Score(domain.FeatureVector) float64 { return float64(c) }
func (c constModel) Name() string                       { return "const" }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(testutils.NewMemorySource(nil))

	err := r.Register("const", func(context.Context, Config) (ports.ScoringModel, error) {
		return constModel(0.25), nil
	})
	require.NoError(t, err)

	m, err := r.Build(context.Background(), Config{Kind: "CONST", LogisticScale: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.25, m.Score(nil))

	assert.Error(t, r.Register("const", func(context.Context, Config) (ports.ScoringModel, error) { return nil, nil }))
	assert.Error(t, r.Register("", func(context.Context, Config) (ports.ScoringModel, error) { return nil, nil }))
	assert.Error(t, r.Register("nilfactory", nil))

	failing := errors.New("boom")
	require.NoError(t, r.Register("broken", func(context.Context, Config) (ports.ScoringModel, error) {
		return nil, failing
	}))
	_, err = r.Build(context.Background(), Config{Kind: "broken", LogisticScale: 1})
	assert.ErrorIs(t, err, failing)
}
