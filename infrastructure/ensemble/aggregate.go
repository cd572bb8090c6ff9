// Package ensemble combines per-pose scores into a single per-complex
// prediction.
package ensemble

import (
	"fmt"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-posescore/internal/domain"
)

// MinTemperature is the floor applied to softmax temperatures.
const MinTemperature = 1e-6

var (
	_ domain.Aggregator = Best{}
	_ domain.Aggregator = Mean{}
	_ domain.Aggregator = Softmax{}
)

// Best takes the maximum score.
type Best struct{}

// Method implements domain.Aggregator.
func (Best) Method() domain.AggregationMethod { return domain.AggregationBest }

// Aggregate implements domain.Aggregator.
func (Best) Aggregate(scores []float64) (float64, error) {
	if len(scores) == 0 {
		return math.NaN(), nil
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}
	return best, nil
}

// Mean takes the arithmetic mean.
type Mean struct{}

// Method implements domain.Aggregator.
func (Mean) Method() domain.AggregationMethod { return domain.AggregationMean }

// Aggregate implements domain.Aggregator.
func (Mean) Aggregate(scores []float64) (float64, error) {
	if len(scores) == 0 {
		return math.NaN(), nil
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return clamp(sum/float64(len(scores)), scores), nil
}

// Softmax takes the exp(s/T)-weighted mean of the scores. Low temperatures
// approach the maximum, high temperatures approach the mean.
type Softmax struct {
	// Temperature is floored at MinTemperature when aggregating.
	Temperature float64
}

// Method implements domain.Aggregator.
func (Softmax) Method() domain.AggregationMethod { return domain.AggregationSoftmax }

// Aggregate implements domain.Aggregator.
//
// Weights are computed relative to the maximum score, which leaves the
// result unchanged mathematically and keeps exp from overflowing at small
// temperatures. The maximum always carries weight 1, so the weight sum
// cannot underflow to zero: all-negative scores at tiny temperatures
// aggregate to their maximum, not to 0. A weight sum that is zero or NaN,
// reachable only through non-finite scores, yields 0.
func (s Softmax) Aggregate(scores []float64) (float64, error) {
	if len(scores) == 0 {
		return math.NaN(), nil
	}
	if len(scores) == 1 {
		return scores[0], nil
	}
	t := math.Max(MinTemperature, s.Temperature)

	hi := scores[0]
	for _, v := range scores[1:] {
		hi = math.Max(hi, v)
	}

	var num, den float64
	for _, v := range scores {
		w := math.Exp((v - hi) / t)
		num += w * v
		den += w
	}
	if den == 0 || math.IsNaN(den) {
		return 0.0, nil
	}
	return clamp(num/den, scores), nil
}

// clamp keeps rounding error from pushing a weighted mean outside the
// range of its inputs.
func clamp(v float64, scores []float64) float64 {
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	return math.Min(hi, math.Max(lo, v))
}

// New returns the aggregator for method. temperature is only used by
// softmax. Unknown methods fail with domain.ErrUnknownAggregationMethod.
func New(method domain.AggregationMethod, temperature float64) (domain.Aggregator, error) {
	switch method {
	case domain.AggregationBest:
		return Best{}, nil
	case domain.AggregationMean:
		return Mean{}, nil
	case domain.AggregationSoftmax:
		return Softmax{Temperature: temperature}, nil
	default:
		return nil, unknownMethodError(string(method))
	}
}

// Aggregate combines scores with the named method.
//
// The method is checked before the scores, so an unknown method fails even
// for an empty score list. An empty list with a known method yields NaN.
func Aggregate(scores []float64, method domain.AggregationMethod, temperature float64) (float64, error) {
	agg, err := New(method, temperature)
	if err != nil {
		return math.NaN(), err
	}
	return agg.Aggregate(scores)
}

// ParseMethod converts a configuration string into an AggregationMethod.
func ParseMethod(s string) (domain.AggregationMethod, error) {
	m := domain.AggregationMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range domain.AggregationMethods {
		if m == known {
			return m, nil
		}
	}
	return "", unknownMethodError(s)
}

func unknownMethodError(name string) error {
	if suggestion := closestMethod(name); suggestion != "" {
		return fmt.Errorf("%w: %q (did you mean %q?)", domain.ErrUnknownAggregationMethod, name, suggestion)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownAggregationMethod, name)
}

// closestMethod returns the known method within edit distance 2 of name.
func closestMethod(name string) string {
	name = strings.ToLower(name)
	best, bestDist := "", 3
	for _, m := range domain.AggregationMethods {
		if d := levenshtein.ComputeDistance(name, string(m)); d < bestDist {
			best, bestDist = string(m), d
		}
	}
	return best
}
