package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

// rateLimitedSource paces Open calls with a token bucket.
type rateLimitedSource struct {
	next    ports.PoseSource
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces rate limiting using a
// token bucket. The limit parameter sets opens per second, while burst
// allows temporary spikes above the sustained rate.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next ports.PoseSource) ports.PoseSource {
		return &rateLimitedSource{next: next, limiter: limiter}
	}
}

// Open waits for a token before forwarding the request.
func (r *rateLimitedSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Open(ctx, path)
}

// metricsSource records open latency and outcome.
type metricsSource struct {
	next      ports.PoseSource
	backend   string
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that records pose source latency and
// outcome counts under the given backend label.
func MetricsMiddleware(backend string, collector ports.MetricsCollector) Middleware {
	return func(next ports.PoseSource) ports.PoseSource {
		return &metricsSource{next: next, backend: backend, collector: collector}
	}
}

func (m *metricsSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := m.next.Open(ctx, path)

	if m.collector != nil {
		labels := map[string]string{"backend": m.backend, "status": openStatus(ctx, err)}
		m.collector.RecordHistogram(ports.MetricSourceOpenTime, time.Since(start).Seconds(), labels)
		m.collector.RecordCounter(ports.MetricSourceOpens, 1, labels)
	}
	return rc, err
}

func openStatus(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrFileMissing):
		return "missing"
	case errors.Is(err, ports.ErrRateLimited):
		return "throttled"
	case ctx.Err() != nil:
		return "canceled"
	default:
		return "error"
	}
}

// tracedSource wraps Open in a span.
type tracedSource struct {
	next    ports.PoseSource
	backend string
}

// TracingMiddleware creates middleware that opens an OpenTelemetry span per
// pose source read.
func TracingMiddleware(backend string) Middleware {
	return func(next ports.PoseSource) ports.PoseSource {
		return &tracedSource{next: next, backend: backend}
	}
}

func (t *tracedSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	ctx, span := otel.Tracer("posescore/source").Start(ctx, "PoseSource.Open")
	defer span.End()

	span.SetAttributes(
		attribute.String("source.backend", t.backend),
		attribute.String("source.path", path),
	)

	rc, err := t.next.Open(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return rc, err
}
