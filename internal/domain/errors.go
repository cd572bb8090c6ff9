package domain

import (
	"errors"
	"fmt"
)

// Errors of the pose-scoring taxonomy. FileMissing, Parse and
// StructuralDegenerate describe a single bad pose and are absorbed into
// sentinel results; UnknownAggregationMethod and ModelUnavailable are
// configuration failures and always surface to the caller.
var (
	// ErrFileMissing indicates that a pose source does not exist.
	ErrFileMissing = errors.New("pose source missing")

	// ErrParse indicates that a pose source could not be parsed.
	ErrParse = errors.New("pose parse error")

	// ErrStructuralDegenerate indicates that a parsed pose lacks the
	// structure needed for interface analysis.
	ErrStructuralDegenerate = errors.New("structurally degenerate pose")

	// ErrUnknownAggregationMethod indicates an unsupported aggregation method.
	ErrUnknownAggregationMethod = errors.New("unknown aggregation method")

	// ErrModelUnavailable indicates that a configured scoring model could not
	// be loaded.
	ErrModelUnavailable = errors.New("scoring model unavailable")

	// ErrInvalidConfiguration indicates that configuration is invalid or
	// incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// PoseError ties a pose-level failure to the pose it occurred on.
type PoseError struct {
	// Path identifies the pose source.
	Path string

	// Line is the 1-based source line of a parse failure, or 0.
	Line int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for PoseError.
func (e *PoseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("pose %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("pose %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *PoseError) Unwrap() error { return e.Err }

// NewPoseError creates a new PoseError with the given details.
func NewPoseError(path string, line int, err error) *PoseError {
	return &PoseError{Path: path, Line: line, Err: err}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets callers match validation failures with ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
