package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// FileSource reads poses from the local filesystem.
type FileSource struct{}

// NewFileSource creates a FileSource.
func NewFileSource() *FileSource { return &FileSource{} }

// Open opens path for reading. Directories are reported as missing.
func (s *FileSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.NewSourceError("fs", path, domain.ErrFileMissing)
		}
		return nil, ports.NewSourceError("fs", path, err)
	}
	if info.IsDir() {
		return nil, ports.NewSourceError("fs", path, domain.ErrFileMissing)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, ports.NewSourceError("fs", path, err)
	}
	return f, nil
}
