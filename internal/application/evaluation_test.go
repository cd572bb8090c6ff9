package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-posescore/internal/domain"
)

func labelled(id, native string) domain.DatasetRecord {
	rec := domain.DatasetRecord{ID: id}
	if native != "" {
		rec.Label = &domain.Label{NativePose: native}
	}
	return rec
}

func scored(id string, pairs ...any) domain.PredictionSet {
	set := domain.PredictionSet{ID: id}
	for i := 0; i < len(pairs); i += 2 {
		set.Scores = append(set.Scores, domain.ScoredPose{Pose: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return set
}

func TestRankPoses(t *testing.T) {
	set := scored("x", "a", 0.2, "b", 0.9, "c", 0.2, "d", 0.5)
	assert.Equal(t, []string{"b", "d", "a", "c"}, RankPoses(set), "ties keep input order")
	assert.Equal(t, "a", set.Scores[0].Pose, "input is not reordered")
	assert.Empty(t, RankPoses(domain.PredictionSet{}))
}

func TestEvaluateTopK(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.DatasetRecord
		preds   []domain.PredictionSet
		want    TopKResult
		report  string
	}{
		{
			name:    "native ranked first",
			records: []domain.DatasetRecord{labelled("1", "a")},
			preds:   []domain.PredictionSet{scored("1", "a", 0.9, "b", 0.1)},
			want:    TopKResult{N: 1, Top1: 1, Top2: 1},
			report:  "Top-1: 1/1 = 1.000\nTop-2: 1/1 = 1.000",
		},
		{
			name:    "native ranked second",
			records: []domain.DatasetRecord{labelled("1", "a")},
			preds:   []domain.PredictionSet{scored("1", "a", 0.4, "b", 0.6, "c", 0.1)},
			want:    TopKResult{N: 1, Top2: 1},
		},
		{
			name:    "native ranked third",
			records: []domain.DatasetRecord{labelled("1", "a")},
			preds:   []domain.PredictionSet{scored("1", "a", 0.1, "b", 0.6, "c", 0.5)},
			want:    TopKResult{N: 1},
		},
		{
			name: "unlabelled and unknown complexes are skipped",
			records: []domain.DatasetRecord{
				labelled("1", "a"),
				labelled("2", ""),
				labelled("3", "z"),
			},
			preds: []domain.PredictionSet{
				scored("1", "a", 0.9),
				scored("2", "a", 0.9),
				scored("3", "x", 0.9, "y", 0.8),
				scored("4", "a", 0.9),
			},
			want:   TopKResult{N: 2, Top1: 1, Top2: 1},
			report: "Top-1: 1/2 = 0.500\nTop-2: 1/2 = 0.500",
		},
		{
			name:    "labelled complex with no scored poses counts as a miss",
			records: []domain.DatasetRecord{labelled("1", "a")},
			preds:   []domain.PredictionSet{scored("1")},
			want:    TopKResult{N: 1},
		},
		{
			name:    "nothing labelled",
			records: []domain.DatasetRecord{labelled("1", "")},
			preds:   []domain.PredictionSet{scored("1", "a", 0.9)},
			want:    TopKResult{},
			report:  "No labeled items.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateTopK(tt.records, tt.preds)
			assert.Equal(t, tt.want, got)
			if tt.report != "" {
				assert.Equal(t, tt.report, got.String())
			}
		})
	}
}

func TestTopKResult_Rates(t *testing.T) {
	r := TopKResult{N: 4, Top1: 1, Top2: 3}
	assert.Equal(t, 0.25, r.Top1Rate())
	assert.Equal(t, 0.75, r.Top2Rate())
	assert.Zero(t, TopKResult{}.Top1Rate())
}
