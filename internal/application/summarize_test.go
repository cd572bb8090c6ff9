package application

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-posescore/infrastructure/pdb"
	"github.com/ahrav/go-posescore/infrastructure/posecheck"
	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/testutils"
)

// badPathChecker fails every pose whose path contains "bad".
type badPathChecker struct{}

func (badPathChecker) Check(ctx context.Context, path string) domain.ValidationResult {
	res := passChecker{}.Check(ctx, path)
	if strings.Contains(path, "bad") {
		res.TwoChainInterfaceOK = false
	}
	return res
}

func TestSummarizer_Summarize(t *testing.T) {
	s, err := NewSummarizer(badPathChecker{}, AggregationConfig{Method: "best", Temperature: 1}, 2)
	require.NoError(t, err)

	report, err := s.Summarize(context.Background(), []domain.PredictionSet{
		scored("mixed", "a", 0.4, "bad1", 0.99, "b", 0.6),
		scored("all-bad", "bad1", 0.5, "bad2", 0.7),
		scored("empty"),
	})
	require.NoError(t, err)
	require.Len(t, report.Summaries, 3)
	require.Len(t, report.Filtered, 3)

	mixed := report.Summaries[0]
	assert.Equal(t, 3, mixed.NPosesIn)
	assert.Equal(t, 2, mixed.NPass)
	assert.InDelta(t, 2.0/3.0, mixed.PassRate(), 1e-12)
	assert.Equal(t, 0.6, mixed.Aggregate.Value, "failing pose is excluded from the best score")
	assert.Equal(t, domain.AggregationBest, mixed.Aggregate.Method)
	assert.Equal(t, scored("mixed", "a", 0.4, "b", 0.6), report.Filtered[0])

	allBad := report.Summaries[1]
	assert.Equal(t, 0, allBad.NPass)
	assert.Zero(t, allBad.PassRate())
	assert.True(t, math.IsNaN(allBad.Aggregate.Value))
	assert.Empty(t, report.Filtered[1].Scores)

	empty := report.Summaries[2]
	assert.True(t, math.IsNaN(empty.PassRate()))
	assert.True(t, math.IsNaN(empty.Aggregate.Value))
}

func TestNewSummarizer_Errors(t *testing.T) {
	_, err := NewSummarizer(nil, AggregationConfig{Method: "best"}, 1)
	assert.Error(t, err)

	_, err = NewSummarizer(badPathChecker{}, AggregationConfig{Method: "median"}, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownAggregationMethod)
}

func TestSummarizer_WithPDBFiles(t *testing.T) {
	dir := t.TempDir()
	good := testutils.PassingPose(3.0).WriteFile(t, dir, "good.pdb")
	single := testutils.SingleChainPose().WriteFile(t, dir, "single.pdb")
	missing := dir + "/missing.pdb"

	src, err := NewPoseSource(context.Background(), SourcesConfig{}, nil, nil)
	require.NoError(t, err)
	checker, err := posecheck.NewChecker(pdb.NewLoader(src), posecheck.DefaultMinAtomsPerChain)
	require.NoError(t, err)

	s, err := NewSummarizer(checker, AggregationConfig{Method: "softmax", Temperature: 1}, 4)
	require.NoError(t, err)

	report, err := s.Summarize(context.Background(), []domain.PredictionSet{
		scored("c1", good, 0.8, single, 0.9, missing, 0.95),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summaries[0].NPass)
	assert.Equal(t, 0.8, report.Summaries[0].Aggregate.Value)
}
