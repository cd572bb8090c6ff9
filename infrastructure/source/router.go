package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ahrav/go-posescore/internal/ports"
)

// Router dispatches Open calls by URI scheme. Paths without a scheme go to
// the local source.
type Router struct {
	mu      sync.RWMutex
	local   ports.PoseSource
	schemes map[string]ports.PoseSource
}

// NewRouter creates a Router with local serving scheme-less paths.
func NewRouter(local ports.PoseSource) *Router {
	return &Router{local: local, schemes: make(map[string]ports.PoseSource)}
}

// Register binds scheme (e.g. "s3") to src, replacing any earlier binding.
func (r *Router) Register(scheme string, src ports.PoseSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemes[strings.ToLower(scheme)] = src
}

// Open implements ports.PoseSource.
func (r *Router) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	src, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	return src.Open(ctx, path)
}

func (r *Router) resolve(path string) (ports.PoseSource, error) {
	scheme, ok := Scheme(path)
	if !ok {
		return r.local, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if src, found := r.schemes[scheme]; found {
		return src, nil
	}
	return nil, ports.NewSourceError(scheme, path, fmt.Errorf("%w: %s", ports.ErrUnsupportedScheme, scheme))
}

// Scheme returns the lower-cased URI scheme of path, if any.
func Scheme(path string) (string, bool) {
	i := strings.Index(path, "://")
	if i <= 0 {
		return "", false
	}
	return strings.ToLower(path[:i]), true
}
