package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-posescore/internal/domain"
)

// TestSourceError tests message formatting and unwrapping of SourceError.
func TestSourceError(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		path    string
		err     error
		wantMsg string
	}{
		{
			name:    "missing object",
			backend: "s3",
			path:    "s3://poses/a.pdb",
			err:     domain.ErrFileMissing,
			wantMsg: "source error: backend=s3, path=s3://poses/a.pdb, err=pose source missing",
		},
		{
			name:    "throttled",
			backend: "s3",
			path:    "s3://poses/b.pdb",
			err:     ErrRateLimited,
			wantMsg: "source error: backend=s3, path=s3://poses/b.pdb, err=rate limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSourceError(tt.backend, tt.path, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSourceError_WrappedMissingStillMatches(t *testing.T) {
	err := fmt.Errorf("open pose: %w", NewSourceError("fs", "/tmp/x.pdb", domain.ErrFileMissing))

	var srcErr *SourceError
	assert.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "fs", srcErr.Backend)
	assert.True(t, errors.Is(err, domain.ErrFileMissing))
}

func TestSinkError(t *testing.T) {
	err := NewSinkError("kafka", "1abc", ErrServiceUnavailable)

	assert.Equal(t, "sink error: sink=kafka, record=1abc, err=service unavailable", err.Error())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("model.path", domain.ErrModelUnavailable)

	assert.Equal(t, "config error: key=model.path, err=scoring model unavailable", err.Error())
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}
