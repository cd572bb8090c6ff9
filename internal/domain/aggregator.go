package domain

// AggregationMethod names the rule that combines per-pose scores into one
// per-complex score.
type AggregationMethod string

const (
	// AggregationBest takes the maximum pose score.
	AggregationBest AggregationMethod = "best"

	// AggregationMean takes the arithmetic mean of pose scores.
	AggregationMean AggregationMethod = "mean"

	// AggregationSoftmax takes a temperature-weighted average that favours
	// high scores more sharply as the temperature drops.
	AggregationSoftmax AggregationMethod = "softmax"
)

// AggregationMethods lists every supported method.
var AggregationMethods = []AggregationMethod{
	AggregationBest,
	AggregationMean,
	AggregationSoftmax,
}

// String returns the string representation of the aggregation method.
func (m AggregationMethod) String() string { return string(m) }

// Aggregator combines the pose scores of one complex into a single value.
// Implementations are pure and safe for concurrent use.
//
// Aggregate returns NaN, not an error, for an empty score list. The result
// does not depend on the order of scores.
//
// Example:
//
//	agg, _ := ensemble.New(domain.AggregationSoftmax, 1.0)
//	value, err := agg.Aggregate([]float64{0.2, 0.9, 0.4})
type Aggregator interface {
	// Aggregate combines scores into one value.
	Aggregate(scores []float64) (float64, error)

	// Method returns the aggregation rule this aggregator implements.
	Method() AggregationMethod
}
