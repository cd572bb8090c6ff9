package scoring

import (
	"math"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.ScoringModel = (*DummyModel)(nil)

// DummyModel scores a pose as a logistic function of its
// approx_buried_score feature. A vector without that feature scores 0.5.
type DummyModel struct {
	scale float64
}

// NewDummyModel creates a DummyModel with the given logistic slope.
// A non-positive scale falls back to DefaultLogisticScale.
func NewDummyModel(scale float64) *DummyModel {
	if scale <= 0 {
		scale = DefaultLogisticScale
	}
	return &DummyModel{scale: scale}
}

// Score implements ports.ScoringModel.
func (m *DummyModel) Score(fv domain.FeatureVector) float64 {
	return sigmoid(m.scale * fv.GetOr(domain.FeatureApproxBuriedScore, 0))
}

// Name implements ports.ScoringModel.
func (m *DummyModel) Name() string { return KindDummy }

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
