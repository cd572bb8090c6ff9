package pdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// Loader opens pose sources and parses them.
// It is safe for concurrent use if the underlying source is.
type Loader struct {
	source ports.PoseSource
}

// NewLoader creates a Loader reading through source.
func NewLoader(source ports.PoseSource) *Loader {
	return &Loader{source: source}
}

// Load reads and parses the pose at path.
//
// A missing source yields an error matching domain.ErrFileMissing. Every
// other failure, including transport errors once the source was found,
// matches domain.ErrParse. Context errors are returned unchanged.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Pose, error) {
	rc, err := l.source.Open(ctx, path)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFileMissing):
			return nil, domain.NewPoseError(path, 0, err)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			return nil, domain.NewPoseError(path, 0, fmt.Errorf("%w: %w", domain.ErrParse, err))
		}
	}
	defer rc.Close()

	pose, err := Parse(rc, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return pose, nil
}
