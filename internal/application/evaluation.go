package application

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/ahrav/go-posescore/internal/domain"
)

// TopKResult counts how often the labelled native pose ranks first and
// within the first two poses.
type TopKResult struct {
	N    int
	Top1 int
	Top2 int
}

// Top1Rate returns Top1/N, or 0 when nothing was evaluated.
func (r TopKResult) Top1Rate() float64 { return rate(r.Top1, r.N) }

// Top2Rate returns Top2/N, or 0 when nothing was evaluated.
func (r TopKResult) Top2Rate() float64 { return rate(r.Top2, r.N) }

func rate(hits, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(hits) / float64(n)
}

// String renders the report printed by the topk command.
func (r TopKResult) String() string {
	if r.N == 0 {
		return "No labeled items."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Top-1: %d/%d = %.3f\n", r.Top1, r.N, r.Top1Rate())
	fmt.Fprintf(&b, "Top-2: %d/%d = %.3f", r.Top2, r.N, r.Top2Rate())
	return b.String()
}

// RankPoses returns the pose identifiers of set ordered by descending
// score. Ties keep their input order.
func RankPoses(set domain.PredictionSet) []string {
	scores := slices.Clone(set.Scores)
	slices.SortStableFunc(scores, func(a, b domain.ScoredPose) int {
		return cmp.Compare(b.Score, a.Score)
	})
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Pose
	}
	return out
}

// EvaluateTopK scores predictions against the native poses labelled in
// records. Predictions for complexes without a label are skipped.
func EvaluateTopK(records []domain.DatasetRecord, predictions []domain.PredictionSet) TopKResult {
	labels := make(map[string]string, len(records))
	for _, rec := range records {
		labels[rec.ID] = rec.NativePose()
	}

	var res TopKResult
	for _, set := range predictions {
		gold := labels[set.ID]
		if gold == "" {
			continue
		}
		res.N++
		ranked := RankPoses(set)
		if len(ranked) > 0 && ranked[0] == gold {
			res.Top1++
		}
		if slices.Contains(ranked[:min(2, len(ranked))], gold) {
			res.Top2++
		}
	}
	return res
}
