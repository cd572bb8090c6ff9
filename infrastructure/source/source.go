// Package source provides pose readers for the local filesystem and S3
// compatible object storage, plus middleware for pacing and observing
// remote reads.
package source

import (
	"github.com/ahrav/go-posescore/internal/ports"
)

// Middleware wraps a PoseSource to add cross-cutting behaviour such as rate
// limiting, metrics collection, or tracing without modifying the backend.
type Middleware func(ports.PoseSource) ports.PoseSource

// Chain applies middleware to src. The first middleware is the outermost.
func Chain(src ports.PoseSource, mws ...Middleware) ports.PoseSource {
	for i := len(mws) - 1; i >= 0; i-- {
		src = mws[i](src)
	}
	return src
}
