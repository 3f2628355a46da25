package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/todoq/internal/storage"
)

const storageScopeName = "github.com/steveyegge/todoq/storage"

// InstrumentedStore wraps storage.SnapshotStore with OTel tracing and metrics.
// Every method gets a span and is counted in todoq.storage.* metrics.
// Use WrapStore to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStore struct {
	inner  storage.SnapshotStore
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStore returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStore(s storage.SnapshotStore) storage.SnapshotStore {
	if !Enabled() {
		return s
	}
	return newInstrumentedStore(s)
}

func newInstrumentedStore(s storage.SnapshotStore) *InstrumentedStore {
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("todoq.storage.operations",
		metric.WithDescription("Total snapshot store operations executed"),
	)
	dur, _ := m.Float64Histogram("todoq.storage.operation.duration",
		metric.WithDescription("Snapshot store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("todoq.storage.errors",
		metric.WithDescription("Total snapshot store operation errors"),
	)
	return &InstrumentedStore{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStore) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStore) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (s *InstrumentedStore) Load(ctx context.Context) (*storage.Snapshot, error) {
	ctx, span, t := s.op(ctx, "Load")
	snap, err := s.inner.Load(ctx)
	if snap != nil {
		span.SetAttributes(attribute.Int("todoq.projects", len(snap.Projects)))
	}
	s.done(ctx, span, t, err)
	return snap, err
}

func (s *InstrumentedStore) Save(ctx context.Context, snap *storage.Snapshot) error {
	attrs := []attribute.KeyValue{
		attribute.Int("todoq.projects", len(snap.Projects)),
		attribute.Int("todoq.sections", len(snap.Sections)),
		attribute.Int("todoq.labels", len(snap.Labels)),
	}
	ctx, span, t := s.op(ctx, "Save", attrs...)
	err := s.inner.Save(ctx, snap)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) Clear(ctx context.Context) error {
	ctx, span, t := s.op(ctx, "Clear")
	err := s.inner.Clear(ctx)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
