package logging

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/crewtrace/internal/config"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = zapcore.DebugLevel

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(zapcore.DebugLevel))
	assert.False(t, logger.Enabled(TraceLevel))
	assert.NotNil(t, logger.Underlying())
	assert.NoError(t, logger.Sync())
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	logger, err := NewLogger(cfg)
	require.Error(t, err)
	assert.Nil(t, logger)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"console on stdout", func(c *Config) { c.Format = "console"; c.Output = "stdout" }, ""},
		{"bad format", func(c *Config) { c.Format = "text" }, "format must be"},
		{"bad output", func(c *Config) { c.Output = "syslog" }, "output must be"},
		{"empty field key", func(c *Config) { c.Fields = map[string]string{"": "x"} }, "field key cannot be empty"},
		{"empty field value", func(c *Config) { c.Fields = map[string]string{"k": ""} }, "empty value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfigFrom(t *testing.T) {
	cfg, err := ConfigFrom(config.LoggingConfig{Level: "TRACE", Format: "console"})
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)

	_, err = ConfigFrom(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"trace", TraceLevel, false},
		{"Trace", TraceLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"", zapcore.InfoLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := LevelFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	id := uuid.New()
	ctx := WithCrewID(context.Background(), id)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()

	fields := ContextFields(ctx)
	keys := make(map[string]string, len(fields))
	for _, f := range fields {
		keys[f.Key] = f.String
	}
	assert.Equal(t, span.SpanContext().TraceID().String(), keys["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), keys["span_id"])
	assert.Equal(t, id.String(), keys["crew.id"])
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithCrewID(context.Background(), uuid.Nil)

	tl.Debug(ctx, "dropped attribute", zap.String("key", "crew_inputs"))
	tl.Trace(ctx, "attached attribute")

	tl.AssertLogged(t, zapcore.DebugLevel, "dropped")
	tl.AssertLogged(t, TraceLevel, "attached")
	tl.AssertField(t, "dropped attribute", "key", "crew_inputs")
	tl.AssertField(t, "dropped attribute", "crew.id", uuid.Nil.String())
	tl.AssertNothingAbove(t, zapcore.DebugLevel)
	assert.Len(t, tl.All(), 2)
}

func TestLogger_NamedAndWith(t *testing.T) {
	tl := NewTestLogger()

	child := tl.Named("telemetry").With(zap.String("component", "gate"))
	child.Info(context.Background(), "ready")

	entries := tl.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "telemetry", entries[0].LoggerName)
	tl.AssertField(t, "ready", "component", "gate")
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().Error(context.Background(), "ignored")
	})
}

func TestWrap(t *testing.T) {
	tl := NewTestLogger()
	wrapped := Wrap(tl.Underlying())

	ctx := WithCrewID(context.Background(), uuid.Nil)
	wrapped.Debug(ctx, "span emission failed")
	tl.AssertField(t, "span emission failed", "crew.id", uuid.Nil.String())

	assert.NotPanics(t, func() {
		Wrap(nil).Debug(ctx, "ignored")
	})
}
