package domain

import (
	"fmt"
	"strconv"
)

// Default solution conditions applied when a conditions record omits a key.
const (
	DefaultPH             = 7.4
	DefaultIonicStrength  = 0.15
	DefaultSulfationLevel = 0.0
)

// Conditions record keys as they appear in dataset records.
const (
	ConditionKeyPH             = "pH"
	ConditionKeyIonicStrength  = "ionic_strength"
	ConditionKeyCofactor       = "cofactor"
	ConditionKeySulfationLevel = "glycosaminoglycan_sulfation_level"
)

// Conditions describes the solution conditions a complex is scored under.
// It is an immutable value type.
type Conditions struct {
	PH              float64 `json:"pH" yaml:"pH"`
	IonicStrength   float64 `json:"ionic_strength" yaml:"ionic_strength"`
	CofactorPresent bool    `json:"cofactor" yaml:"cofactor"`
	SulfationLevel  float64 `json:"glycosaminoglycan_sulfation_level" yaml:"glycosaminoglycan_sulfation_level"`
}

// DefaultConditions returns physiological defaults: pH 7.4, 0.15 M ionic
// strength, no cofactor and no sulfation.
func DefaultConditions() Conditions {
	return Conditions{
		PH:             DefaultPH,
		IonicStrength:  DefaultIonicStrength,
		SulfationLevel: DefaultSulfationLevel,
	}
}

// ConditionsFromRecord builds Conditions from a loosely typed conditions
// record. Missing keys take their defaults. Numeric keys accept any numeric
// or numeric-string value; "cofactor" is interpreted by truthiness, so a
// non-empty name, a non-zero number or true all count as present.
func ConditionsFromRecord(record map[string]any) (Conditions, error) {
	c := DefaultConditions()
	if record == nil {
		return c, nil
	}

	var err error
	if v, ok := record[ConditionKeyPH]; ok {
		if c.PH, err = toFloat(v); err != nil {
			return Conditions{}, fmt.Errorf("condition %s: %w", ConditionKeyPH, err)
		}
	}
	if v, ok := record[ConditionKeyIonicStrength]; ok {
		if c.IonicStrength, err = toFloat(v); err != nil {
			return Conditions{}, fmt.Errorf("condition %s: %w", ConditionKeyIonicStrength, err)
		}
	}
	if v, ok := record[ConditionKeySulfationLevel]; ok {
		if c.SulfationLevel, err = toFloat(v); err != nil {
			return Conditions{}, fmt.Errorf("condition %s: %w", ConditionKeySulfationLevel, err)
		}
	}
	if v, ok := record[ConditionKeyCofactor]; ok {
		c.CofactorPresent = truthy(v)
	}
	return c, nil
}

// WithPH returns a copy of c at the given pH.
func (c Conditions) WithPH(ph float64) Conditions {
	c.PH = ph
	return c
}

// WithIonicStrength returns a copy of c at the given ionic strength.
func (c Conditions) WithIonicStrength(ionic float64) Conditions {
	c.IonicStrength = ionic
	return c
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: null value", ErrInvalidConfiguration)
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidConfiguration, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidConfiguration, v)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
