package observability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/compgraph/logger"
)

// Run tracks one execution of a graph from Run until its stream is closed.
type Run struct {
	ID        string
	Name      string
	StartTime time.Time
	Metrics   *EngineMetrics

	span  trace.Span
	ended bool
}

type runContextKey struct{}

// StartRun opens a span for a graph run and stores the run, and its id, in
// the returned context. If metrics is nil, metric recording is skipped.
func StartRun(ctx context.Context, name string, metrics *EngineMetrics) (context.Context, *Run) {
	r := &Run{
		ID:        uuid.NewString(),
		Name:      name,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
	ctx = logger.ContextWithRunID(ctx, r.ID)
	ctx, r.span = StartSpan(ctx, SpanGraphRun, trace.WithAttributes(
		attribute.String(AttrRunID, r.ID),
		attribute.String("compgraph.graph", name),
	))
	return context.WithValue(ctx, runContextKey{}, r), r
}

// Bind returns ctx carrying the run's span, id and the run itself, for
// work done on the run's behalf under a caller's context.
func (r *Run) Bind(ctx context.Context) context.Context {
	ctx = logger.ContextWithRunID(ctx, r.ID)
	ctx = trace.ContextWithSpan(ctx, r.span)
	return context.WithValue(ctx, runContextKey{}, r)
}

// RunFromContext retrieves the Run from context, or nil.
func RunFromContext(ctx context.Context) *Run {
	if r, ok := ctx.Value(runContextKey{}).(*Run); ok {
		return r
	}
	return nil
}

// End closes the span and records run metrics. Only the first call has any
// effect.
func (r *Run) End(ctx context.Context, rows int, err error) {
	if r.ended {
		return
	}
	r.ended = true
	duration := time.Since(r.StartTime)

	status := "ok"
	if err != nil {
		status = "error"
		r.span.RecordError(err)
		r.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	r.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int(AttrRows, rows),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	r.span.End()

	r.Metrics.RecordRun(ctx, status, duration)
}

// Duration returns the elapsed time since the run started.
func (r *Run) Duration() time.Duration {
	return time.Since(r.StartTime)
}
