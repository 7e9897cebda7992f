package telemetry

import (
	"context"
	"errors"
	"fmt"
)

// ErrInterrupted marks a deliberate termination request (for example a signal
// handler unwinding the process). It is never swallowed during
// initialization.
var ErrInterrupted = errors.New("telemetry: interrupted")

// FailureClass says whether a failure may be absorbed by telemetry.
type FailureClass int

const (
	// Recoverable failures demote or abort telemetry silently.
	Recoverable FailureClass = iota
	// Terminal failures are termination or cancellation and must reach the
	// caller.
	Terminal
)

func (c FailureClass) String() string {
	if c == Terminal {
		return "terminal"
	}
	return "recoverable"
}

// Classify sorts err into Recoverable or Terminal.
func Classify(err error) FailureClass {
	switch {
	case err == nil:
		return Recoverable
	case errors.Is(err, ErrInterrupted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return Terminal
	default:
		return Recoverable
	}
}

// panicError wraps a recovered panic value.
type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// Unwrap exposes a panicked error so Classify can see through it.
func (p *panicError) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}

// capture runs fn and converts a panic into an error.
func capture(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return fn()
}
