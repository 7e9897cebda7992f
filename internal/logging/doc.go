// Package logging provides the zap-based diagnostic logger for crewtrace.
//
// Telemetry runs inside someone else's process, so the defaults are quiet:
// warn level, JSON, stderr. Swallowed telemetry failures are logged at debug
// and never above it.
//
//	cfg := logging.NewDefaultConfig()
//	cfg.Level = zapcore.DebugLevel
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	tel := telemetry.New(gate, telemetry.WithLogger(logger.Underlying()))
//
// ContextFields adds trace_id/span_id from the active OpenTelemetry span and
// crew.id when the context was tagged with WithCrewID.
//
// Tests use NewTestLogger, backed by zaptest/observer.
package logging
