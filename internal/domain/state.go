// Package domain contains pure, dependency-free domain models and types
// for pose scoring: structures, conditions, features, validation reports,
// predictions and the immutable State that flows between pipeline units.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"time"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating the need for runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
// This function is provided for creating keys outside of the domain package.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys used throughout a complex scoring run.
var (
	// KeyRunID stores the identifier of the scoring run.
	KeyRunID = Key[string]{"run_id"}

	// KeyComplexID stores the identifier of the complex being scored.
	KeyComplexID = Key[string]{"complex_id"}

	// KeyPosePaths stores the candidate pose sources in input order.
	KeyPosePaths = Key[[]string]{"pose_paths"}

	// KeyConditions stores the solution conditions of the complex.
	KeyConditions = Key[Conditions]{"conditions"}

	// KeyPoseChecks stores one validation report per input pose.
	KeyPoseChecks = Key[[]ValidationResult]{"pose_checks"}

	// KeyInterfaceFeatures stores interface features of the poses admitted
	// for scoring, in input order.
	KeyInterfaceFeatures = Key[[]FeatureResult]{"interface_features"}

	// KeyConditionFeatures stores the condition features of the complex.
	KeyConditionFeatures = Key[FeatureVector]{"condition_features"}

	// KeyPredictions stores the scored poses of the complex.
	KeyPredictions = Key[PredictionSet]{"predictions"}

	// KeyAggregate stores the aggregated complex score.
	KeyAggregate = Key[AggregateResult]{"aggregate"}
)

// deepCopyValue creates a deep copy of a value to ensure true immutability.
// It handles slices, maps, and other reference types that would otherwise
// allow external modification of State data.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	// time.Time is immutable and can be returned directly.
	if val, ok := value.(time.Time); ok {
		return val
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return value
		}
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(copyInto(v.Index(i)))
		}
		return newSlice.Interface()

	case reflect.Map:
		if v.IsNil() {
			return value
		}
		newMap := reflect.MakeMapWithSize(v.Type(), v.Len())
		for _, key := range v.MapKeys() {
			newMap.SetMapIndex(copyInto(key), copyInto(v.MapIndex(key)))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(copyInto(v.Elem()))
		return newPtr.Interface()

	case reflect.Struct:
		// Unexported fields are carried over shallowly; exported fields are
		// deep copied.
		newStruct := reflect.New(v.Type()).Elem()
		newStruct.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(copyInto(v.Field(i)))
			}
		}
		return newStruct.Interface()

	default:
		// Primitive types are returned as-is since they are copied by value.
		return value
	}
}

// copyInto deep copies v and returns a value assignable to v's static type.
// Nil interface values survive the round trip unchanged.
func copyInto(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface && v.IsNil() {
		return reflect.Zero(v.Type())
	}
	copied := deepCopyValue(v.Interface())
	if copied == nil {
		return reflect.Zero(v.Type())
	}
	out := reflect.ValueOf(copied)
	if out.Type() != v.Type() && out.Type().ConvertibleTo(v.Type()) {
		out = out.Convert(v.Type())
	}
	return out
}

// State represents an immutable collection of scoring data that flows
// through the pipeline. It uses copy-on-write semantics to ensure
// thread-safety and prevent unintended mutations. State is the primary
// data structure for passing information between Units.
type State struct {
	// data holds the key-value pairs that make up the state.
	// It is unexported to maintain immutability guarantees.
	data map[string]any
}

// NewState creates a new empty State.
// The returned State is ready to use and can be safely shared across
// goroutines.
func NewState() State {
	return State{
		data: make(map[string]any),
	}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists
// and contains a value of the correct type. The returned value is a deep
// copy to maintain immutability.
//
// Example:
//
//	paths, ok := Get(state, KeyPosePaths)
//	if !ok {
//	    // handle missing value
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// With creates a new State with the specified key-value pair added or
// updated. It implements copy-on-write semantics, returning a new State
// instance while leaving the original unchanged.
//
// Example:
//
//	newState := With(state, KeyComplexID, "1abc")
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any, 1)
	}
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// Has reports whether a value is stored under the named key.
func (s State) Has(keyName string) bool {
	_, ok := s.data[keyName]
	return ok
}

// Keys returns all keys present in the State.
// The returned slice can be used to iterate over all stored values and
// is safe to modify without affecting the original State.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// NewComplexState seeds a State for scoring one dataset record.
func NewComplexState(runID, complexID string, poses []string, conditions Conditions) State {
	s := With(NewState(), KeyRunID, runID)
	s = With(s, KeyComplexID, complexID)
	s = With(s, KeyPosePaths, poses)
	return With(s, KeyConditions, conditions)
}
