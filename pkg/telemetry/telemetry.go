package telemetry

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/crewtrace/internal/logging"
	"github.com/fyrsmithlabs/crewtrace/pkg/events"
)

// Telemetry is the event catalog: one method per lifecycle event.
//
// Every method is safe to call whatever the gate's state, never returns an
// error and never panics. A nil *Telemetry is valid and inert.
type Telemetry struct {
	gate       *Gate
	emitter    *Emitter
	logger     *logging.Logger
	version    string
	platform   PlatformFunc
	subscriber *Subscriber

	// executions holds open Crew Execution spans by crew ID so that
	// EndCrew can close the span opened by the crew-start subscriber.
	executions sync.Map // uuid.UUID -> *SpanHandle
}

// Option configures a Telemetry.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	meter    metric.Meter
	version  string
	platform PlatformFunc
	gateOpts []GateOption
	buses    []events.Bus
}

// WithLogger sets the logger for swallowed failures. They are logged at
// debug level only.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeter sets the meter for self-metrics.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithLibraryVersion overrides the reported crewai_version.
func WithLibraryVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.version = v
		}
	}
}

// WithPlatform overrides platform discovery.
func WithPlatform(f PlatformFunc) Option {
	return func(o *options) {
		if f != nil {
			o.platform = f
		}
	}
}

// WithGateOptions passes options to the gate built by Start.
func WithGateOptions(opts ...GateOption) Option {
	return func(o *options) {
		o.gateOpts = append(o.gateOpts, opts...)
	}
}

// WithBus registers the Lifecycle Subscriber on bus while the catalog is
// built. A bus that cannot be subscribed is logged at debug level and
// skipped.
func WithBus(bus events.Bus) Option {
	return func(o *options) {
		o.buses = append(o.buses, bus)
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		version:  LibraryVersion(),
		platform: CurrentPlatform,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates the catalog on top of an existing gate and subscribes it to
// every bus given with WithBus.
func New(gate *Gate, opts ...Option) *Telemetry {
	o := buildOptions(opts)
	logger := logging.Wrap(o.logger)

	metrics, err := NewMetrics(o.meter)
	if err != nil {
		logger.Debug(context.Background(), "self-metrics disabled", zap.Error(err))
		metrics = nil
	}

	t := &Telemetry{
		gate:     gate,
		emitter:  NewEmitter(gate, o.logger, metrics),
		logger:   logger,
		version:  o.version,
		platform: o.platform,
	}
	t.subscriber = NewSubscriber(t)
	for _, bus := range o.buses {
		t.subscriber.Register(bus)
	}
	return t
}

// Start builds a gate from cfg, initializes it, binds the process-wide
// tracer and returns the catalog.
//
// The only error returned is a terminal one (cancellation or
// ErrInterrupted); every other failure yields an inert Telemetry.
func Start(ctx context.Context, cfg *Config, opts ...Option) (*Telemetry, error) {
	o := buildOptions(opts)
	gateOpts := append([]GateOption{WithGateLogger(o.logger)}, o.gateOpts...)

	gate := NewGate(cfg, gateOpts...)
	if err := gate.Initialize(ctx); err != nil {
		return nil, err
	}
	gate.BindTracer()

	return New(gate, opts...), nil
}

// Gate returns the availability gate.
func (t *Telemetry) Gate() *Gate {
	if t == nil {
		return nil
	}
	return t.gate
}

// Emitter returns the span emitter.
func (t *Telemetry) Emitter() *Emitter {
	if t == nil {
		return nil
	}
	return t.emitter
}

// Ready reports whether emissions are attempted.
func (t *Telemetry) Ready() bool {
	return t != nil && t.gate.Ready()
}

// Subscriber returns the Lifecycle Subscriber owned by the catalog.
func (t *Telemetry) Subscriber() *Subscriber {
	if t == nil {
		return nil
	}
	return t.subscriber
}

// Shutdown stops listening for crew-start events, ends every Crew Execution
// span still open, flushes pending spans and stops the exporter.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if err := t.subscriber.Close(); err != nil {
		t.logger.Debug(ctx, "crew start unsubscribe failed", zap.Error(err))
	}
	if n := t.endExecutions(ctx); n > 0 {
		t.logger.Debug(ctx, "ended unclosed crew execution spans", zap.Int("count", n))
	}
	return t.gate.Shutdown(ctx)
}

// ForceFlush exports all pending spans now.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.gate.ForceFlush(ctx)
}

// emit and open are the catalog's entry points into the emitter.
func emit[D any](ctx context.Context, t *Telemetry, d Descriptor[D], share bool, data D) Result {
	if t == nil || !d.Permits(share) {
		return Result{Status: Skipped}
	}
	// Selection runs after the readiness check so opt-in serialization costs
	// nothing when telemetry is off.
	if !t.emitter.Ready() {
		return t.emitter.Emit(ctx, d.Name, nil)
	}
	return t.emitter.Emit(ctx, d.Name, d.Select(share, data))
}

func open[D any](ctx context.Context, t *Telemetry, d Descriptor[D], share bool, data D) *SpanHandle {
	if t == nil || !d.Permits(share) || !t.emitter.Ready() {
		return nil
	}
	h, _ := t.emitter.Open(ctx, d.Name, d.Select(share, data))
	return h
}

func closeSpan[D any](ctx context.Context, t *Telemetry, h *SpanHandle, d Descriptor[D], share bool, data D) Result {
	if t == nil || h == nil {
		return Result{Status: Skipped}
	}
	return t.emitter.Close(ctx, h, d.Select(share, data))
}

// endExecutions closes every Crew Execution span still held for EndCrew and
// returns how many it closed.
func (t *Telemetry) endExecutions(ctx context.Context) int {
	n := 0
	t.executions.Range(func(key, _ any) bool {
		if h := t.takeExecution(key.(uuid.UUID)); h != nil {
			t.emitter.Close(ctx, h, nil)
			n++
		}
		return true
	})
	return n
}

// Executions returns the number of Crew Execution spans waiting for EndCrew.
func (t *Telemetry) Executions() int {
	if t == nil {
		return 0
	}
	n := 0
	t.executions.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// takeExecution removes and returns the open Crew Execution span for id.
func (t *Telemetry) takeExecution(id uuid.UUID) *SpanHandle {
	v, ok := t.executions.LoadAndDelete(id)
	if !ok {
		return nil
	}
	return v.(*SpanHandle)
}
