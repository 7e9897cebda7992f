// Package telemetry records anonymous lifecycle events of crews, tasks,
// tools, flows and deployments as OpenTelemetry spans.
//
// # Overview
//
// Telemetry is opt-out at the process level and opt-in for content. Every
// event has an always tier (ids, keys, counts, versions) and an opt-in tier
// (descriptions, inputs, outputs, machine details) that is attached only when
// the crew sets ShareCrew. Crew Execution spans are sent only for sharing
// crews.
//
// Nothing in this package returns an error to the host or panics into it.
// A Gate that fails to initialize stays inert, a span that fails is dropped
// and an attribute that cannot be encoded is dropped on its own. Failures are
// logged at debug level. Cancellation and ErrInterrupted seen during
// initialization are the one exception: they are returned to the caller.
//
// # Usage
//
//	tel, err := telemetry.Start(ctx, telemetry.NewDefaultConfig(),
//	    telemetry.WithLogger(logger))
//	if err != nil {
//	    return err // cancelled during startup
//	}
//	defer tel.Shutdown(context.Background())
//
//	tel.CrewCreation(ctx, c, inputs)
//	h := tel.TaskStarted(ctx, c, task)
//	// ... run the task
//	tel.TaskEnded(ctx, h, task, c)
//
// Crew Execution spans are normally driven by lifecycle notifications. Pass
// the bus at startup:
//
//	tel, err := telemetry.Start(ctx, cfg, telemetry.WithBus(bus))
//
// crew-start opens the span, crew-end (or a direct EndCrew) closes it, and
// Shutdown ends any span whose crew never finished.
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "https://telemetry.crewai.com:4319"
//	  protocol: "http/protobuf" # or "grpc"
//	  timeout: "30s"
//
// # Testing
//
// Use TestTelemetry for tests:
//
//	tt := telemetry.NewTestTelemetry()
//	tt.FlowCreation(ctx, crew.Flow{Name: "research"})
//	tt.AssertSpanAttribute(t, telemetry.SpanFlowCreation, "flow_name", "research")
package telemetry
