package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// State is a snapshot of the gate.
type State struct {
	Ready       bool
	TracerBound bool
}

// Gate decides whether telemetry is attempted at all.
//
// Ready is set by a successful Initialize and only ever cleared afterwards,
// by compare-and-set, until Initialize is called again. Reads are lock-free;
// a racing demotion only decides whether one emission is attempted.
type Gate struct {
	cfg  *Config
	opts gateOptions

	ready       atomic.Bool
	tracerBound atomic.Bool
	provider    atomic.Pointer[sdktrace.TracerProvider]
}

// GateOption configures a Gate.
type GateOption func(*gateOptions)

type gateOptions struct {
	factory    ExporterFactory
	processors []sdktrace.SpanProcessor
	install    func(trace.TracerProvider)
	logger     *zap.Logger
}

// WithTraceExporter replaces the OTLP exporter with exp.
func WithTraceExporter(exp sdktrace.SpanExporter) GateOption {
	return func(o *gateOptions) {
		o.factory = func(context.Context, *Config) (sdktrace.SpanExporter, error) {
			return exp, nil
		}
	}
}

// WithExporterFactory replaces the OTLP exporter construction.
func WithExporterFactory(f ExporterFactory) GateOption {
	return func(o *gateOptions) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithSpanProcessor registers an additional synchronous span processor.
func WithSpanProcessor(sp sdktrace.SpanProcessor) GateOption {
	return func(o *gateOptions) {
		if sp != nil {
			o.processors = append(o.processors, sp)
		}
	}
}

// WithTracerInstaller replaces otel.SetTracerProvider in BindTracer.
func WithTracerInstaller(install func(trace.TracerProvider)) GateOption {
	return func(o *gateOptions) {
		if install != nil {
			o.install = install
		}
	}
}

// WithGateLogger sets the logger for swallowed failures.
func WithGateLogger(logger *zap.Logger) GateOption {
	return func(o *gateOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewGate creates an inert gate. Call Initialize to arm it.
func NewGate(cfg *Config, opts ...GateOption) *Gate {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	o := gateOptions{
		factory: newOTLPExporter,
		install: otel.SetTracerProvider,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Gate{cfg: cfg, opts: o}
}

// Initialize builds the export pipeline: resource, tracer provider, batch
// processor and network exporter.
//
// Any recoverable failure leaves the gate not ready and returns nil.
// Terminal failures (cancellation, ErrInterrupted) are returned, or
// re-panicked when they arrived as a panic, and leave the state exactly as it
// was.
func (g *Gate) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := g.cfg.Validate(); err != nil {
		g.fail("invalid telemetry config", err)
		return nil
	}
	if !g.cfg.Enabled {
		g.ready.Store(false)
		return nil
	}

	var tp *sdktrace.TracerProvider
	err := capture(func() error {
		exporter, err := g.opts.factory(ctx, g.cfg)
		if err != nil {
			return err
		}
		tp = newTracerProvider(g.cfg, exporter, g.opts.processors)
		return ctx.Err()
	})
	if err != nil {
		if tp != nil {
			_ = tp.Shutdown(context.Background())
		}
		if Classify(err) == Terminal {
			propagate(err)
			return err
		}
		g.fail("telemetry initialization failed", err)
		return nil
	}

	if old := g.provider.Swap(tp); old != nil {
		g.retire(old)
	}
	g.tracerBound.Store(false)
	g.ready.Store(true)
	return nil
}

// BindTracer installs the provider as the process-wide tracer provider. It
// does nothing unless the gate is ready and not yet bound. A failed install
// demotes the gate.
func (g *Gate) BindTracer() {
	if !g.ready.Load() || g.tracerBound.Load() {
		return
	}

	tp := g.provider.Load()
	if tp == nil {
		g.fail("bind tracer", errors.New("no tracer provider"))
		return
	}

	err := capture(func() error {
		g.opts.install(tp)
		return nil
	})
	if err != nil {
		if Classify(err) == Terminal {
			propagate(err)
		}
		g.tracerBound.Store(false)
		g.fail("bind tracer failed", err)
		return
	}
	g.tracerBound.CompareAndSwap(false, true)
}

// Ready reports whether emissions are attempted.
func (g *Gate) Ready() bool {
	return g != nil && g.ready.Load()
}

// State returns a snapshot of the gate.
func (g *Gate) State() State {
	if g == nil {
		return State{}
	}
	return State{Ready: g.ready.Load(), TracerBound: g.tracerBound.Load()}
}

// Demote clears Ready. It reports whether this call performed the
// transition.
func (g *Gate) Demote() bool {
	return g.ready.CompareAndSwap(true, false)
}

// Shutdown flushes pending spans and stops the exporter. The gate is demoted
// first so no new spans are started.
func (g *Gate) Shutdown(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.Demote()

	tp := g.provider.Load()
	if tp == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && g.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace provider shutdown: %w", err)
	}
	return nil
}

// ForceFlush exports all pending spans now.
func (g *Gate) ForceFlush(ctx context.Context) error {
	if g == nil {
		return nil
	}
	tp := g.provider.Load()
	if tp == nil {
		return nil
	}
	if err := tp.ForceFlush(ctx); err != nil {
		return fmt.Errorf("trace flush: %w", err)
	}
	return nil
}

// tracer returns the tracer used for emissions.
func (g *Gate) tracer() trace.Tracer {
	tp := g.provider.Load()
	if tp == nil {
		return noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	return tp.Tracer(InstrumentationName)
}

func (g *Gate) fail(msg string, err error) {
	g.Demote()
	g.opts.logger.Debug(msg, zap.Error(err))
}

// retire shuts down a replaced provider without blocking Initialize.
func (g *Gate) retire(tp *sdktrace.TracerProvider) {
	timeout := g.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()
}

// propagate re-panics a terminal failure that arrived as a panic.
func propagate(err error) {
	var pe *panicError
	if errors.As(err, &pe) {
		panic(pe.value)
	}
}
