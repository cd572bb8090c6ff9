package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// ErrEmptyPipeline is returned when a pipeline without units is validated.
var ErrEmptyPipeline = errors.New("pipeline has no units")

// Pipeline is a sequential execution container that runs units in strict
// order, where each unit's output State becomes the input of the next.
// A Pipeline is built once and then executed concurrently for many
// complexes; every execution works on its own State.
type Pipeline struct {
	// id names the pipeline in errors and logs.
	id string
	// units holds the stages in execution order.
	units []ports.Unit
	// names tracks unit names for O(1) duplicate detection.
	names map[string]struct{}
	mu    sync.RWMutex
}

// NewPipeline creates an empty pipeline with the given identifier.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:    id,
		units: make([]ports.Unit, 0),
		names: make(map[string]struct{}),
	}
}

// ID returns the pipeline identifier.
func (p *Pipeline) ID() string { return p.id }

// Add appends a unit to the end of the pipeline. It fails for a nil unit
// or when a unit with the same name is already present.
// Add is safe for concurrent use with Execute.
func (p *Pipeline) Add(unit ports.Unit) error {
	if unit == nil {
		return fmt.Errorf("cannot add nil unit to pipeline %s", p.id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	name := unit.Name()
	if _, exists := p.names[name]; exists {
		return fmt.Errorf("unit with name %s already exists in pipeline %s", name, p.id)
	}
	p.units = append(p.units, unit)
	p.names[name] = struct{}{}
	return nil
}

// Units returns a copy of the ordered unit list.
func (p *Pipeline) Units() []ports.Unit {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ports.Unit, len(p.units))
	copy(out, p.units)
	return out
}

// Validate checks that the pipeline is non-empty and that every unit is
// ready to execute.
func (p *Pipeline) Validate() error {
	units := p.Units()
	if len(units) == 0 {
		return fmt.Errorf("pipeline %s: %w", p.id, ErrEmptyPipeline)
	}
	for _, u := range units {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("pipeline %s: unit %s: %w", p.id, u.Name(), err)
		}
	}
	return nil
}

// Execute runs every unit in order, threading the State through them.
// It checks for cancellation between units and wraps unit failures with
// the name of the failing unit.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	current := state
	for _, unit := range p.Units() {
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		default:
		}

		next, err := unit.Execute(ctx, current)
		if err != nil {
			return current, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, unit.Name(), err)
		}
		current = next
	}
	return current, nil
}
