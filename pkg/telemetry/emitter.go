package telemetry

import (
	"context"
	"errors"
	"sync/atomic"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/crewtrace/internal/logging"
)

// InstrumentationName is the tracer name every span is created under.
const InstrumentationName = "crewai.telemetry"

// Status is the outcome of one emission.
type Status int

const (
	// Emitted means the span was opened (and, for fire-and-forget, closed).
	Emitted Status = iota
	// Skipped means nothing was attempted: gate not ready, share flag
	// absent, or no handle to close.
	Skipped
	// Failed means the emission was aborted part way.
	Failed
)

func (s Status) String() string {
	switch s {
	case Emitted:
		return "emitted"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result describes one emission. Catalog operations discard it; it exists for
// tests and self-metrics.
type Result struct {
	Status  Status
	Dropped int // attributes that could not be attached
	Err     error
}

var errHandleClosed = errors.New("span handle already closed")

// SpanHandle owns an open span between Open and Close.
//
// A handle must be closed exactly once by one goroutine. Close on an already
// closed handle is a no-op; a handle that is never closed leaks its span in
// the exporter, not here.
type SpanHandle struct {
	name   string
	span   trace.Span
	ctx    context.Context
	closed atomic.Bool
}

// Name returns the span name.
func (h *SpanHandle) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

// Context returns a context carrying the open span, for parenting.
func (h *SpanHandle) Context() context.Context {
	if h == nil || h.ctx == nil {
		return context.Background()
	}
	return h.ctx
}

// Closed reports whether Close has consumed the handle.
func (h *SpanHandle) Closed() bool {
	return h != nil && h.closed.Load()
}

// Emitter opens, attributes and closes spans, gated by a Gate. It never
// returns an error to its caller and never panics. A nil *Emitter skips
// everything.
type Emitter struct {
	gate    *Gate
	logger  *logging.Logger
	metrics *Metrics
	open    atomic.Int64
}

// NewEmitter creates an emitter bound to gate. logger and metrics may be nil.
func NewEmitter(gate *Gate, logger *zap.Logger, metrics *Metrics) *Emitter {
	return &Emitter{gate: gate, logger: logging.Wrap(logger), metrics: metrics}
}

// Ready reports whether the gate currently allows emissions.
func (e *Emitter) Ready() bool {
	return e != nil && e.gate.Ready()
}

// OpenHandles returns the number of handles opened and not yet closed.
func (e *Emitter) OpenHandles() int64 {
	if e == nil {
		return 0
	}
	return e.open.Load()
}

// Emit records a complete span: open, attach, set OK, end.
func (e *Emitter) Emit(ctx context.Context, name string, attrs []Attribute) Result {
	if e == nil {
		return Result{Status: Skipped}
	}
	ctx = orBackground(ctx)
	if !e.Ready() {
		return e.record(ctx, name, Result{Status: Skipped})
	}

	var res Result
	err := capture(func() error {
		spanCtx, span := e.gate.tracer().Start(ctx, name)
		res.Dropped = e.attach(spanCtx, span, attrs)
		span.SetStatus(codes.Ok, "")
		span.End()
		return nil
	})
	return e.record(ctx, name, e.finish(res, err))
}

// Open starts a span and returns its handle without ending it. On any
// failure it returns nil; callers must accept a nil handle.
func (e *Emitter) Open(ctx context.Context, name string, attrs []Attribute) (*SpanHandle, Result) {
	if e == nil {
		return nil, Result{Status: Skipped}
	}
	ctx = orBackground(ctx)
	if !e.Ready() {
		return nil, e.record(ctx, name, Result{Status: Skipped})
	}

	var (
		res Result
		h   *SpanHandle
	)
	err := capture(func() error {
		spanCtx, span := e.gate.tracer().Start(ctx, name)
		res.Dropped = e.attach(spanCtx, span, attrs)
		h = &SpanHandle{name: name, span: span, ctx: spanCtx}
		return nil
	})
	res = e.finish(res, err)
	if res.Status != Emitted {
		h = nil
	} else {
		e.open.Add(1)
	}
	return h, e.record(ctx, name, res)
}

// Close attaches late-bound attributes to h, sets OK and ends the span.
// A nil or already closed handle is skipped.
func (e *Emitter) Close(ctx context.Context, h *SpanHandle, attrs []Attribute) Result {
	if e == nil || h == nil || h.span == nil {
		return Result{Status: Skipped}
	}
	ctx = orBackground(ctx)
	if !h.closed.CompareAndSwap(false, true) {
		e.logger.Debug(h.Context(), "span handle closed twice", zap.String("span", h.name))
		return Result{Status: Skipped, Err: errHandleClosed}
	}
	e.open.Add(-1)

	var res Result
	err := capture(func() error {
		res.Dropped = e.attach(trace.ContextWithSpan(ctx, h.span), h.span, attrs)
		h.span.SetStatus(codes.Ok, "")
		h.span.End()
		return nil
	})
	return e.record(ctx, h.name, e.finish(res, err))
}

// attach sets each attribute on its own so one bad value cannot drop the
// others. It returns the number dropped.
func (e *Emitter) attach(ctx context.Context, span trace.Span, attrs []Attribute) int {
	dropped := 0
	for _, a := range attrs {
		err := capture(func() error {
			kv, err := a.keyValue()
			if err != nil {
				return err
			}
			span.SetAttributes(kv)
			return nil
		})
		switch {
		case err == nil:
		case errors.Is(err, errNilValue):
			// null attributes are omitted, not failures
		default:
			dropped++
			e.logger.Debug(ctx, "dropped span attribute", zap.String("key", a.Key), zap.Error(err))
			e.metrics.attributeDropped(ctx, a.Key)
		}
	}
	return dropped
}

func (e *Emitter) finish(res Result, err error) Result {
	if err != nil {
		res.Status = Failed
		res.Err = err
		return res
	}
	res.Status = Emitted
	return res
}

func (e *Emitter) record(ctx context.Context, name string, res Result) Result {
	switch res.Status {
	case Failed:
		e.logger.Debug(ctx, "span emission failed", zap.String("span", name), zap.Error(res.Err))
	case Emitted:
		e.logger.Trace(ctx, "span emitted", zap.String("span", name), zap.Int("dropped", res.Dropped))
	}
	e.metrics.emission(ctx, name, res.Status)
	return res
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
