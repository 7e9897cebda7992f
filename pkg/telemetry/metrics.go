package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts what the emitter did. All methods are nil-safe.
type Metrics struct {
	spansTotal        metric.Int64Counter
	attributesDropped metric.Int64Counter
}

// NewMetrics creates the self-metrics instruments on meter. If meter is nil,
// uses the global meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.spansTotal, err = meter.Int64Counter(
		"crewtrace.spans.total",
		metric.WithDescription("Span emissions by span name and outcome"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	m.attributesDropped, err = meter.Int64Counter(
		"crewtrace.attributes.dropped.total",
		metric.WithDescription("Span attributes dropped because they could not be attached"),
		metric.WithUnit("{attribute}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) emission(ctx context.Context, name string, status Status) {
	if m == nil {
		return
	}
	m.spansTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("span", name),
		attribute.String("status", status.String()),
	))
}

func (m *Metrics) attributeDropped(ctx context.Context, key string) {
	if m == nil {
		return
	}
	m.attributesDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
}
