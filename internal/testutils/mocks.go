package testutils

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// MemorySource is an in-memory ports.PoseSource keyed by path.
type MemorySource struct {
	mu    sync.Mutex
	files map[string]string
	opens map[string]int
	err   map[string]error
}

// NewMemorySource creates a MemorySource holding files.
func NewMemorySource(files map[string]string) *MemorySource {
	if files == nil {
		files = make(map[string]string)
	}
	return &MemorySource{files: files, opens: make(map[string]int), err: make(map[string]error)}
}

// Put stores content under path.
func (m *MemorySource) Put(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// FailWith makes Open on path return err.
func (m *MemorySource) FailWith(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err[path] = err
}

// Opens returns how often path was opened.
func (m *MemorySource) Opens(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[path]
}

// Open implements ports.PoseSource.
func (m *MemorySource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens[path]++
	if err, ok := m.err[path]; ok {
		return nil, err
	}
	content, ok := m.files[path]
	if !ok {
		return nil, ports.NewSourceError("memory", path, domain.ErrFileMissing)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// MetricCall is one recorded MetricsCollector invocation.
type MetricCall struct {
	Kind   string
	Name   string
	Value  float64
	Labels map[string]string
}

// RecordingMetrics is a ports.MetricsCollector that keeps every call.
type RecordingMetrics struct {
	mu    sync.Mutex
	calls []MetricCall
}

// NewRecordingMetrics creates an empty RecordingMetrics.
func NewRecordingMetrics() *RecordingMetrics { return &RecordingMetrics{} }

func (r *RecordingMetrics) record(kind, name string, v float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]string, len(labels))
	for k, val := range labels {
		cp[k] = val
	}
	r.calls = append(r.calls, MetricCall{Kind: kind, Name: name, Value: v, Labels: cp})
}

// RecordLatency implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordLatency(operation string, d time.Duration, labels map[string]string) {
	r.record("latency", operation, d.Seconds(), labels)
}

// RecordCounter implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordCounter(metric string, v float64, labels map[string]string) {
	r.record("counter", metric, v, labels)
}

// RecordGauge implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordGauge(metric string, v float64, labels map[string]string) {
	r.record("gauge", metric, v, labels)
}

// RecordHistogram implements ports.MetricsCollector.
func (r *RecordingMetrics) RecordHistogram(metric string, v float64, labels map[string]string) {
	r.record("histogram", metric, v, labels)
}

// Calls returns the calls recorded for name.
func (r *RecordingMetrics) Calls(name string) []MetricCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []MetricCall
	for _, c := range r.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Sum adds the values recorded for name whose labels include match.
func (r *RecordingMetrics) Sum(name string, match map[string]string) float64 {
	total := 0.0
	for _, c := range r.Calls(name) {
		ok := true
		for k, v := range match {
			if c.Labels[k] != v {
				ok = false
				break
			}
		}
		if ok {
			total += c.Value
		}
	}
	return total
}
