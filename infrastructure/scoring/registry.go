package scoring

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// Factory builds a scoring model from configuration.
type Factory func(ctx context.Context, cfg Config) (ports.ScoringModel, error)

// Registry maps model kinds to their factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a registry with the built-in dummy and learned
// kinds. Learned artifacts are read through source.
func NewRegistry(source ports.PoseSource) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories[KindDummy] = func(_ context.Context, cfg Config) (ports.ScoringModel, error) {
		return NewDummyModel(cfg.LogisticScale), nil
	}
	r.factories[KindLearned] = func(ctx context.Context, cfg Config) (ports.ScoringModel, error) {
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: learned model requires a path", domain.ErrModelUnavailable)
		}
		return LoadLearnedModel(ctx, source, cfg.Path)
	}
	return r
}

// Register adds a factory for kind. Kinds are case-insensitive.
func (r *Registry) Register(kind string, f Factory) error {
	if kind == "" {
		return fmt.Errorf("model kind cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("factory for model kind %q cannot be nil", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kind = strings.ToLower(kind)
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("model kind %q already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Build validates cfg and constructs the selected model.
func (r *Registry) Build(ctx context.Context, cfg Config) (ports.ScoringModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind := strings.ToLower(cfg.Kind)

	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, r.unknownKind(cfg.Kind)
	}
	return f(ctx, cfg)
}

func (r *Registry) unknownKind(kind string) error {
	best, bestDist := "", 3
	for _, k := range r.Kinds() {
		if d := levenshtein.ComputeDistance(strings.ToLower(kind), k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best != "" {
		return fmt.Errorf("%w: unknown model kind %q (did you mean %q?)", domain.ErrInvalidConfiguration, kind, best)
	}
	return fmt.Errorf("%w: unknown model kind %q (available: %s)",
		domain.ErrInvalidConfiguration, kind, strings.Join(r.Kinds(), ", "))
}
