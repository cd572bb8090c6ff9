// Package sink writes scoring results: prediction records as JSON lines to
// files or Kafka, and tabular summaries as CSV.
package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.PredictionSink = (*JSONLSink)(nil)

// JSONLSink writes one JSON object per prediction set per line. It is safe
// for concurrent use.
type JSONLSink struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	closer io.Closer
	closed bool
}

// NewJSONLSink writes to w. If w is an io.Closer, Close closes it.
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{buf: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// CreateJSONLFile creates (or truncates) path, including missing parent
// directories, and returns a sink writing to it.
func CreateJSONLFile(path string) (*JSONLSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return NewJSONLSink(f), nil
}

// Write implements ports.PredictionSink.
func (s *JSONLSink) Write(_ context.Context, set domain.PredictionSet) error {
	line, err := json.Marshal(set)
	if err != nil {
		return ports.NewSinkError("jsonl", set.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ports.NewSinkError("jsonl", set.ID, ports.ErrSinkClosed)
	}
	if _, err := s.buf.Write(append(line, '\n')); err != nil {
		return ports.NewSinkError("jsonl", set.ID, err)
	}
	return nil
}

// Close flushes buffered lines and closes the underlying writer.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.buf.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
