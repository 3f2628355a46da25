package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/steveyegge/todoq/internal/storage"
)

type stubStore struct {
	loads, saves, clears int
	err                  error
}

func (s *stubStore) Load(ctx context.Context) (*storage.Snapshot, error) {
	s.loads++
	return &storage.Snapshot{}, s.err
}

func (s *stubStore) Save(ctx context.Context, snap *storage.Snapshot) error {
	s.saves++
	return s.err
}

func (s *stubStore) Clear(ctx context.Context) error {
	s.clears++
	return s.err
}

func (s *stubStore) Close() error { return nil }

func TestEnabled(t *testing.T) {
	t.Setenv("TODOQ_OTEL_ENABLED", "")
	if Enabled() {
		t.Error("Enabled() = true with env unset")
	}
	t.Setenv("TODOQ_OTEL_ENABLED", "true")
	if !Enabled() {
		t.Error("Enabled() = false with TODOQ_OTEL_ENABLED=true")
	}
}

func TestInitDisabled(t *testing.T) {
	t.Setenv("TODOQ_OTEL_ENABLED", "")
	if err := Init(context.Background(), "todoq", "test"); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	_, span := Tracer("").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("span from disabled telemetry should be a no-op")
	}
	span.End()
}

func TestInitStdout(t *testing.T) {
	var buf bytes.Buffer
	old := stdoutWriter
	stdoutWriter = &buf
	t.Cleanup(func() {
		stdoutWriter = old
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
	})

	t.Setenv("TODOQ_OTEL_ENABLED", "true")
	t.Setenv("TODOQ_OTEL_STDOUT", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	if err := Init(context.Background(), "todoq", "test"); err != nil {
		t.Fatalf("Init() = %v", err)
	}

	_, span := Tracer("test").Start(context.Background(), "todoq.test-span")
	span.End()
	Shutdown(context.Background())

	if !strings.Contains(buf.String(), "todoq.test-span") {
		t.Errorf("exported output missing span name: %q", buf.String())
	}
}

func TestWrapStoreDisabled(t *testing.T) {
	t.Setenv("TODOQ_OTEL_ENABLED", "")
	inner := &stubStore{}
	if got := WrapStore(inner); got != storage.SnapshotStore(inner) {
		t.Errorf("WrapStore() = %T, want the store unchanged", got)
	}
}

func TestInstrumentedStoreDelegates(t *testing.T) {
	inner := &stubStore{}
	s := newInstrumentedStore(inner)
	ctx := context.Background()

	if _, err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &storage.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if inner.loads != 1 || inner.saves != 1 || inner.clears != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1", inner.loads, inner.saves, inner.clears)
	}

	inner.err = errors.New("disk full")
	if err := s.Save(ctx, &storage.Snapshot{}); !errors.Is(err, inner.err) {
		t.Errorf("Save() = %v, want the inner error", err)
	}
}
