package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/crewtrace/pkg/crew"
	"github.com/fyrsmithlabs/crewtrace/pkg/events"
	"github.com/fyrsmithlabs/crewtrace/pkg/telemetry"
)

// syncBuffer is a bytes.Buffer safe for a command writing in the background.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// recordSpans routes every gate the CLI builds into an in-memory recorder.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	gateOptions = []telemetry.GateOption{
		telemetry.WithTraceExporter(nil),
		telemetry.WithSpanProcessor(recorder),
		telemetry.WithTracerInstaller(func(trace.TracerProvider) {}),
	}
	t.Cleanup(func() { gateOptions = nil })
	return recorder
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.yaml")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &syncBuffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func findSpan(recorder *tracetest.SpanRecorder, name string) map[string]any {
	for _, span := range recorder.Ended() {
		if span.Name() == name {
			return telemetry.SpanAttributes(span)
		}
	}
	return nil
}

func TestRootCmd_Commands(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, telemetry.LibraryVersion(), cmd.Version)
	assert.True(t, cmd.SilenceUsage)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
		assert.NotEmpty(t, sub.Short, sub.Name())
	}
	for _, want := range []string{"status", "emit", "listen", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestStatus(t *testing.T) {
	recordSpans(t)

	out, err := run(t, "status", "--config", missingConfig(t))
	require.NoError(t, err)

	assert.Contains(t, out, "https://telemetry.crewai.com:4319")
	assert.Contains(t, out, "crewAI-telemetry")
	assert.Regexp(t, `enabled:\s+true`, out)
	assert.Regexp(t, `ready:\s+true`, out)
}

func TestStatus_Disabled(t *testing.T) {
	recordSpans(t)
	path := writeConfig(t, "telemetry:\n  enabled: false\n")

	out, err := run(t, "status", "--config", path)
	require.NoError(t, err)

	assert.Regexp(t, `enabled:\s+false`, out)
	assert.Regexp(t, `ready:\s+false`, out)
}

func TestStatus_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "logging:\n  format: xml\n")

	_, err := run(t, "status", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestEmitFlowExecution(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantNodes any
	}{
		{
			name: "without share",
			args: []string{"--flow", "research", "--node", "fetch", "--node", "summarize"},
		},
		{
			name:      "with share",
			args:      []string{"--flow", "research", "--node", "fetch", "--node", "summarize", "--share"},
			wantNodes: `["fetch","summarize"]`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := recordSpans(t)
			args := append([]string{"emit", "flow-execution", "--config", missingConfig(t)}, tc.args...)

			out, err := run(t, args...)
			require.NoError(t, err)
			assert.Contains(t, out, `sent "Flow Execution" for flow "research"`)

			attrs := findSpan(recorder, telemetry.SpanFlowExecution)
			require.NotNil(t, attrs)
			assert.Equal(t, "research", attrs["flow_name"])
			if tc.wantNodes == nil {
				assert.NotContains(t, attrs, "node_names")
			} else {
				assert.Equal(t, tc.wantNodes, attrs["node_names"])
			}
		})
	}
}

func TestEmitFlowExecution_RequiresFlow(t *testing.T) {
	recordSpans(t)

	_, err := run(t, "emit", "flow-execution", "--config", missingConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow")
}

func TestEmitFlowExecution_Disabled(t *testing.T) {
	recorder := recordSpans(t)
	path := writeConfig(t, "telemetry:\n  enabled: false\n")

	out, err := run(t, "emit", "flow-execution", "--config", path, "--flow", "research")
	require.NoError(t, err)

	assert.Contains(t, out, "nothing sent")
	assert.Empty(t, recorder.Started())
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "crewtrace ")
	assert.Contains(t, out, "go1")
}

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestListen(t *testing.T) {
	recorder := recordSpans(t)
	server := startTestNATSServer(t)

	out := &syncBuffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"listen", "--config", missingConfig(t), "--nats", server.ClientURL(), "--subject-prefix", "test."})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "listening on test.crew.start")
	}, 5*time.Second, 10*time.Millisecond)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()
	bus, err := events.NewNATSBus(nc, events.WithSubjectPrefix("test."))
	require.NoError(t, err)

	finished := crew.Crew{ID: uuid.New(), Key: "done", ShareCrew: true}
	abandoned := crew.Crew{ID: uuid.New(), Key: "abandoned", ShareCrew: true}
	require.NoError(t, bus.Publish(ctx, events.Event{Topic: events.TopicCrewStart, Crew: &finished}))
	require.NoError(t, bus.Publish(ctx, events.Event{Topic: events.TopicCrewStart, Crew: &abandoned}))

	// start and end arrive on different subjects, so wait for both starts
	require.Eventually(t, func() bool {
		n := 0
		for _, span := range recorder.Started() {
			if span.Name() == telemetry.SpanCrewExecution {
				n++
			}
		}
		return n == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, events.Event{Topic: events.TopicCrewEnd, Crew: &finished, Output: "report"}))

	require.Eventually(t, func() bool {
		return len(endedByName(recorder, telemetry.SpanCrewExecution)) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "report", findSpan(recorder, telemetry.SpanCrewExecution)["crew_output"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not stop")
	}

	assert.Len(t, endedByName(recorder, telemetry.SpanCrewExecution), 2, "abandoned execution span ended on exit")
}

func endedByName(recorder *tracetest.SpanRecorder, name string) []string {
	var out []string
	for _, span := range recorder.Ended() {
		if span.Name() == name {
			out = append(out, span.Name())
		}
	}
	return out
}

func TestListen_NoServer(t *testing.T) {
	recordSpans(t)

	_, err := run(t, "listen", "--config", missingConfig(t), "--nats", "nats://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}
