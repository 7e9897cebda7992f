package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"nil", nil, Recoverable},
		{"plain", errors.New("connection refused"), Recoverable},
		{"interrupted", ErrInterrupted, Terminal},
		{"wrapped interrupted", fmt.Errorf("init: %w", ErrInterrupted), Terminal},
		{"canceled", context.Canceled, Terminal},
		{"deadline", fmt.Errorf("export: %w", context.DeadlineExceeded), Terminal},
		{"panic with terminal error", &panicError{value: context.Canceled}, Terminal},
		{"panic with string", &panicError{value: "boom"}, Recoverable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCapture(t *testing.T) {
	assert.NoError(t, capture(func() error { return nil }))

	want := errors.New("plain")
	assert.Equal(t, want, capture(func() error { return want }))

	err := capture(func() error { panic("boom") })
	require.Error(t, err)
	assert.Equal(t, "panic: boom", err.Error())

	var pe *panicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "boom", pe.value)
	assert.Nil(t, pe.Unwrap())
}

func TestFailureClass_String(t *testing.T) {
	assert.Equal(t, "recoverable", Recoverable.String())
	assert.Equal(t, "terminal", Terminal.String())
}
