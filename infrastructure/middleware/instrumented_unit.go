package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.Unit = (*InstrumentedUnit)(nil)

// InstrumentedUnit decorates a pipeline Unit with an OpenTelemetry span and
// latency and outcome metrics. It is stateless and safe for concurrent use.
type InstrumentedUnit struct {
	next    ports.Unit
	metrics ports.MetricsCollector
}

// NewInstrumentedUnit wraps next. A nil metrics collector disables metrics
// but keeps tracing.
func NewInstrumentedUnit(next ports.Unit, metrics ports.MetricsCollector) *InstrumentedUnit {
	if next == nil {
		panic("instrumented unit: next unit is required")
	}
	return &InstrumentedUnit{next: next, metrics: metrics}
}

// Name returns the wrapped unit's name.
func (iu *InstrumentedUnit) Name() string { return iu.next.Name() }

// Validate delegates to the wrapped unit.
func (iu *InstrumentedUnit) Validate() error { return iu.next.Validate() }

// Unwrap returns the wrapped unit.
func (iu *InstrumentedUnit) Unwrap() ports.Unit { return iu.next }

// Execute runs the wrapped unit inside a span named after it.
func (iu *InstrumentedUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	complexID, _ := domain.Get(state, domain.KeyComplexID)
	runID, _ := domain.Get(state, domain.KeyRunID)
	ctx, span := otel.Tracer("posescore/pipeline").Start(ctx, "Unit.Execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("unit.name", iu.next.Name()),
			attribute.String("complex.id", complexID),
			attribute.String("run.id", runID),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := iu.next.Execute(ctx, state)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if paths, ok := domain.Get(state, domain.KeyPosePaths); ok {
		span.SetAttributes(attribute.Int("complex.poses", len(paths)))
	}

	if iu.metrics != nil {
		labels := map[string]string{"unit": iu.next.Name(), "status": status}
		iu.metrics.RecordLatency(ports.MetricUnitDuration, elapsed, labels)
		iu.metrics.RecordCounter(ports.MetricUnitExecutions, 1, labels)
	}
	return out, err
}

// Instrument wraps every unit in units.
func Instrument(units []ports.Unit, metrics ports.MetricsCollector) []ports.Unit {
	out := make([]ports.Unit, len(units))
	for i, u := range units {
		out[i] = NewInstrumentedUnit(u, metrics)
	}
	return out
}
