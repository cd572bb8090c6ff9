package domain

import (
	"encoding/json"
	"fmt"
)

// Interface feature names in their canonical output order.
const (
	FeatureContactCount       = "contact_count_4A"
	FeatureHydrophobicContact = "hydrophobic_contacts"
	FeatureSaltBridges        = "salt_bridges"
	FeatureClashes            = "clashes"
	FeatureCentroidDistance   = "centroid_distance"
	FeatureApproxBuriedScore  = "approx_buried_score"
)

// Condition feature names in their canonical output order.
const (
	FeaturePH             = "pH"
	FeatureIonicStrength  = "ionic_strength"
	FeatureHasCofactor    = "has_cofactor"
	FeatureSulfationLevel = "glycosaminoglycan_sulfation_level"
)

// PosePathKey is the key under which the pose identifier is reported
// alongside interface features.
const PosePathKey = "pose_path"

// InterfaceFeatureNames lists the numeric keys of a populated interface
// feature vector in order.
var InterfaceFeatureNames = []string{
	FeatureContactCount,
	FeatureHydrophobicContact,
	FeatureSaltBridges,
	FeatureClashes,
	FeatureCentroidDistance,
	FeatureApproxBuriedScore,
}

// ConditionFeatureNames lists the keys of a condition feature vector in
// order.
var ConditionFeatureNames = []string{
	FeaturePH,
	FeatureIonicStrength,
	FeatureHasCofactor,
	FeatureSulfationLevel,
}

// Feature is one named numeric descriptor.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FeatureVector is an ordered mapping from feature name to value. Order is
// significant for models that consume features positionally; names are
// unique within a vector.
type FeatureVector []Feature

// Get returns the value stored under name.
func (fv FeatureVector) Get(name string) (float64, bool) {
	for _, f := range fv {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// GetOr returns the value stored under name, or def when absent.
func (fv FeatureVector) GetOr(name string, def float64) float64 {
	if v, ok := fv.Get(name); ok {
		return v
	}
	return def
}

// Names returns the feature names in order.
func (fv FeatureVector) Names() []string {
	names := make([]string, len(fv))
	for i, f := range fv {
		names[i] = f.Name
	}
	return names
}

// Merge returns a new vector holding fv followed by the features of other.
// A name present in both keeps its position from fv and takes the value
// from other.
func (fv FeatureVector) Merge(other FeatureVector) FeatureVector {
	out := make(FeatureVector, len(fv), len(fv)+len(other))
	copy(out, fv)
	for _, f := range other {
		replaced := false
		for i := range out {
			if out[i].Name == f.Name {
				out[i].Value = f.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, f)
		}
	}
	return out
}

// Map returns the vector as an unordered map.
func (fv FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(fv))
	for _, f := range fv {
		m[f.Name] = f.Value
	}
	return m
}

// MarshalJSON encodes the vector as a JSON object whose keys keep the
// vector order.
func (fv FeatureVector) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, f := range fv {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name, err)
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

// DegenerateReason names why a pose could not produce interface features.
type DegenerateReason string

// Degenerate outcomes of interface featurization. They are mutually
// exclusive and checked in this order.
const (
	DegenerateNone             DegenerateReason = ""
	DegenerateMissingFile      DegenerateReason = "missing_file"
	DegenerateParseError       DegenerateReason = "parse_error"
	DegenerateNoModels         DegenerateReason = "no_models"
	DegenerateSingleChain      DegenerateReason = "single_chain_or_no_atoms"
	DegenerateNoInterfacePairs DegenerateReason = "no_interface_pairs"
)

// Err maps the reason onto the error taxonomy.
func (r DegenerateReason) Err() error {
	switch r {
	case DegenerateNone:
		return nil
	case DegenerateMissingFile:
		return ErrFileMissing
	case DegenerateParseError:
		return ErrParse
	default:
		return ErrStructuralDegenerate
	}
}

// FeatureResult is the tagged outcome of interface featurization: either a
// populated feature vector or a degenerate reason, never both.
type FeatureResult struct {
	// PosePath identifies the featurized pose.
	PosePath string

	// Features holds the interface descriptors when Degenerate is empty.
	Features FeatureVector

	// Degenerate is set when the pose could not be featurized.
	Degenerate DegenerateReason
}

// NewFeatureResult returns a populated result.
func NewFeatureResult(posePath string, fv FeatureVector) FeatureResult {
	return FeatureResult{PosePath: posePath, Features: fv}
}

// NewDegenerateResult returns a sentinel result for reason.
func NewDegenerateResult(posePath string, reason DegenerateReason) FeatureResult {
	return FeatureResult{PosePath: posePath, Degenerate: reason}
}

// IsDegenerate reports whether the result carries a degenerate reason.
func (r FeatureResult) IsDegenerate() bool { return r.Degenerate != DegenerateNone }

// Vector returns the numeric view of the result. A degenerate result maps
// to a single flag feature named after its reason with value 1.0.
func (r FeatureResult) Vector() FeatureVector {
	if r.IsDegenerate() {
		return FeatureVector{{Name: string(r.Degenerate), Value: 1.0}}
	}
	out := make(FeatureVector, len(r.Features))
	copy(out, r.Features)
	return out
}

// MarshalJSON flattens the result into a single object keyed by
// pose_path plus the numeric view of the result.
func (r FeatureResult) MarshalJSON() ([]byte, error) {
	body, err := r.Vector().MarshalJSON()
	if err != nil {
		return nil, err
	}
	path, err := json.Marshal(r.PosePath)
	if err != nil {
		return nil, err
	}
	out := append([]byte(`{"`+PosePathKey+`":`), path...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
		return out, nil
	}
	return append(out, '}'), nil
}
