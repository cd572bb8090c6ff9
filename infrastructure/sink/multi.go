package sink

import (
	"context"
	"errors"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.PredictionSink = (*Fanout)(nil)

// Fanout writes every prediction set to each of its sinks and records the
// outcome per sink.
type Fanout struct {
	sinks   map[string]ports.PredictionSink
	order   []string
	metrics ports.MetricsCollector
}

// NewFanout creates an empty Fanout. metrics may be nil.
func NewFanout(metrics ports.MetricsCollector) *Fanout {
	return &Fanout{sinks: make(map[string]ports.PredictionSink), metrics: metrics}
}

// Add registers s under name. Adding a name twice replaces the sink.
func (f *Fanout) Add(name string, s ports.PredictionSink) {
	if _, ok := f.sinks[name]; !ok {
		f.order = append(f.order, name)
	}
	f.sinks[name] = s
}

// Len reports how many sinks are registered.
func (f *Fanout) Len() int { return len(f.order) }

// Write implements ports.PredictionSink. Every sink is attempted; the
// returned error joins all failures.
func (f *Fanout) Write(ctx context.Context, set domain.PredictionSet) error {
	var errs []error
	for _, name := range f.order {
		err := f.sinks[name].Write(ctx, set)
		if f.metrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			f.metrics.RecordCounter(ports.MetricSinkRecords, 1, map[string]string{"sink": name, "status": status})
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, name := range f.order {
		if err := f.sinks[name].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
