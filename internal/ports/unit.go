// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-posescore/internal/domain"
)

// Unit represents one stage of the per-complex scoring pipeline.
// Each Unit reads what it needs from the scoring State and returns a new
// State carrying its results. Units are stateless and safe for concurrent
// execution on different states.
type Unit interface {
	// Name returns a unique identifier for this unit.
	// The name is used for logging, tracing, and metrics labels.
	Name() string

	// Execute performs the unit's transformation on the provided State.
	// The original State is never modified.
	//
	// Per-pose problems (missing files, parse errors, degenerate structures)
	// are recorded in the returned State. Only configuration failures and
	// context cancellation are returned as errors.
	//
	// Example:
	//
	//	newState, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return domain.State{}, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks if the unit is properly configured and ready for
	// execution. It is called during pipeline construction.
	Validate() error
}

// UnitFactory creates a configured Unit. The config map carries the unit's
// parameters as decoded from configuration.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// UnitRegistry creates units by type name.
type UnitRegistry interface {
	// CreateUnit creates a unit of unitType with the given id and
	// parameters.
	CreateUnit(unitType string, id string, config map[string]any) (Unit, error)

	// RegisterUnitFactory makes unitType available to CreateUnit.
	RegisterUnitFactory(unitType string, factory UnitFactory) error

	// GetSupportedTypes lists the registered unit types.
	GetSupportedTypes() []string
}
