package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// TestVersion is the crewai_version reported by NewTestTelemetry.
const TestVersion = "0.0.0-test"

// TestPlatform is the platform reported by NewTestTelemetry.
var TestPlatform = Platform{
	Name:    "linux-6.8.0-amd64",
	Release: "6.8.0",
	System:  "linux",
	Version: "#1 SMP",
	CPUs:    8,
}

// TestTelemetry is a ready catalog that records spans and self-metrics in
// memory.
type TestTelemetry struct {
	*Telemetry

	SpanRecorder *tracetest.SpanRecorder
	MetricReader *sdkmetric.ManualReader
}

// NewTestTelemetry creates a ready Telemetry that exports nothing. The
// process-wide tracer provider is left alone.
func NewTestTelemetry(opts ...Option) *TestTelemetry {
	spanRecorder := tracetest.NewSpanRecorder()
	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))

	gate := NewGate(NewDefaultConfig(),
		WithTraceExporter(nil),
		WithSpanProcessor(spanRecorder),
		WithTracerInstaller(func(trace.TracerProvider) {}),
	)
	_ = gate.Initialize(context.Background())
	gate.BindTracer()

	base := []Option{
		WithMeter(mp.Meter(InstrumentationName)),
		WithLibraryVersion(TestVersion),
		WithPlatform(func() Platform { return TestPlatform }),
	}
	return &TestTelemetry{
		Telemetry:    New(gate, append(base, opts...)...),
		SpanRecorder: spanRecorder,
		MetricReader: metricReader,
	}
}

// Spans returns all ended spans.
func (t *TestTelemetry) Spans() []sdktrace.ReadOnlySpan {
	return t.SpanRecorder.Ended()
}

// SpansByName returns every ended span called name.
func (t *TestTelemetry) SpansByName(name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, span := range t.Spans() {
		if span.Name() == name {
			out = append(out, span)
		}
	}
	return out
}

// SpanByName finds an ended span by name, or nil if not found.
func (t *TestTelemetry) SpanByName(name string) sdktrace.ReadOnlySpan {
	for _, span := range t.Spans() {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

// AssertSpanExists verifies a span with the given name was recorded.
func (t *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if t.SpanByName(name) == nil {
		tb.Errorf("expected span %q not found, got: %v", name, t.spanNames())
	}
}

// AssertSpanAttribute verifies a span has the expected attribute.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, spanName string, key string, expected any) {
	tb.Helper()
	span := t.SpanByName(spanName)
	if span == nil {
		tb.Fatalf("span %q not found", spanName)
	}
	got, ok := SpanAttributes(span)[key]
	if !ok {
		tb.Errorf("span %q missing attribute %q", spanName, key)
		return
	}
	if got != expected {
		tb.Errorf("span %q attribute %q: got %v, want %v", spanName, key, got, expected)
	}
}

// Counter sums the data points of an int64 counter whose attributes include
// every one of match.
func (t *TestTelemetry) Counter(tb testing.TB, name string, match ...attribute.KeyValue) int64 {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := t.MetricReader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collect metrics: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if hasAll(dp.Attributes, match) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

// SpanAttributes returns a span's attributes keyed by name.
func SpanAttributes(span sdktrace.ReadOnlySpan) map[string]any {
	out := make(map[string]any, len(span.Attributes()))
	for _, attr := range span.Attributes() {
		out[string(attr.Key)] = attrValue(attr.Value)
	}
	return out
}

func (t *TestTelemetry) spanNames() []string {
	spans := t.Spans()
	names := make([]string, len(spans))
	for i, span := range spans {
		names[i] = span.Name()
	}
	return names
}

func hasAll(set attribute.Set, match []attribute.KeyValue) bool {
	for _, kv := range match {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

// attrValue extracts the value from an attribute.
func attrValue(v attribute.Value) any {
	switch v.Type() {
	case attribute.STRING:
		return v.AsString()
	case attribute.INT64:
		return v.AsInt64()
	case attribute.FLOAT64:
		return v.AsFloat64()
	case attribute.BOOL:
		return v.AsBool()
	default:
		return v.AsInterface()
	}
}
