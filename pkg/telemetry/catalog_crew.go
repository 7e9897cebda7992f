package telemetry

import (
	"context"
	"runtime"

	"github.com/fyrsmithlabs/crewtrace/internal/logging"
	"github.com/fyrsmithlabs/crewtrace/pkg/crew"
)

// Span names for crew-level events.
const (
	SpanCrewCreated   = "Crew Created"
	SpanCrewExecution = "Crew Execution"
)

type crewData struct {
	crew     crew.Crew
	inputs   map[string]any
	version  string
	platform PlatformFunc
}

type crewEndData struct {
	crew    crew.Crew
	output  string
	version string
}

type taskOutputSummary struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Output      string `json:"output"`
}

// inputsJSON encodes inputs, or omits the attribute when there are none.
func inputsJSON(inputs map[string]any) any {
	if len(inputs) == 0 {
		return nil
	}
	return JSON(inputs)
}

var crewCreatedEvent = Descriptor[crewData]{
	Name: SpanCrewCreated,
	Schema: []Field[crewData]{
		always("crewai_version", func(d crewData) any { return d.version }),
		always("go_version", func(crewData) any { return runtime.Version() }),
		always("crew_key", func(d crewData) any { return d.crew.Key }),
		always("crew_id", func(d crewData) any { return d.crew.ID.String() }),
		always("crew_process", func(d crewData) any { return d.crew.Process }),
		always("crew_memory", func(d crewData) any { return d.crew.Memory }),
		always("crew_number_of_tasks", func(d crewData) any { return len(d.crew.Tasks) }),
		always("crew_number_of_agents", func(d crewData) any { return len(d.crew.Agents) }),
		optIn("crew_agents", func(d crewData) any { return JSON(d.crew.Agents) }),
		optIn("crew_tasks", func(d crewData) any { return JSON(d.crew.Tasks) }),
		optIn("platform", func(d crewData) any { return d.platform().Name }),
		optIn("platform_release", func(d crewData) any { return d.platform().Release }),
		optIn("platform_system", func(d crewData) any { return d.platform().System }),
		optIn("platform_version", func(d crewData) any { return d.platform().Version }),
		optIn("cpus", func(d crewData) any { return d.platform().CPUs }),
		optIn("crew_inputs", func(d crewData) any { return inputsJSON(d.inputs) }),
	},
}

var crewExecutionEvent = Descriptor[crewData]{
	Name:       SpanCrewExecution,
	ShareGated: true,
	Schema: []Field[crewData]{
		always("crewai_version", func(d crewData) any { return d.version }),
		always("crew_key", func(d crewData) any { return d.crew.Key }),
		always("crew_id", func(d crewData) any { return d.crew.ID.String() }),
		optIn("crew_inputs", func(d crewData) any { return inputsJSON(d.inputs) }),
		optIn("crew_agents", func(d crewData) any { return JSON(d.crew.Agents) }),
		optIn("crew_tasks", func(d crewData) any { return JSON(d.crew.Tasks) }),
	},
}

var crewEndedEvent = Descriptor[crewEndData]{
	Name:       SpanCrewExecution,
	ShareGated: true,
	Schema: []Field[crewEndData]{
		always("crewai_version", func(d crewEndData) any { return d.version }),
		optIn("crew_output", func(d crewEndData) any { return d.output }),
		optIn("crew_tasks_output", func(d crewEndData) any {
			out := make([]taskOutputSummary, 0, len(d.crew.Tasks))
			for _, task := range d.crew.Tasks {
				out = append(out, taskOutputSummary{
					ID:          task.ID.String(),
					Description: task.Description,
					Output:      task.RawOutput(),
				})
			}
			return JSON(out)
		}),
	},
}

// CrewCreation records the creation of a crew. Agents, tasks, inputs and
// machine details are sent only when the crew shares data.
func (t *Telemetry) CrewCreation(ctx context.Context, c crew.Crew, inputs map[string]any) {
	if t == nil {
		return
	}
	emit(ctx, t, crewCreatedEvent, c.ShareCrew, crewData{
		crew:     c,
		inputs:   inputs,
		version:  t.version,
		platform: t.platform,
	})
}

// CrewExecutionSpan opens the Crew Execution span for a crew that shares
// data. Without sharing nothing is emitted at all.
//
// The handle is also kept by crew ID for EndCrew. Opening a second execution
// span for the same crew before EndCrew replaces the kept handle and ends the
// first without output. Spans still kept at Shutdown are ended there.
func (t *Telemetry) CrewExecutionSpan(ctx context.Context, c crew.Crew, inputs map[string]any) *SpanHandle {
	if t == nil {
		return nil
	}
	h := open(ctx, t, crewExecutionEvent, c.ShareCrew, crewData{
		crew:     c,
		inputs:   inputs,
		version:  t.version,
		platform: t.platform,
	})
	if h == nil {
		return nil
	}
	if prev, loaded := t.executions.Swap(c.ID, h); loaded && prev != nil {
		ctx = logging.WithCrewID(orBackground(ctx), c.ID)
		t.logger.Debug(ctx, "replaced unclosed crew execution span")
		t.emitter.Close(ctx, prev.(*SpanHandle), nil)
	}
	return h
}

// EndCrew closes the crew's open Crew Execution span with the final output
// and a per-task output summary. It does nothing if no span is open.
func (t *Telemetry) EndCrew(ctx context.Context, c crew.Crew, finalOutput string) {
	if t == nil || !c.ShareCrew {
		return
	}
	h := t.takeExecution(c.ID)
	closeSpan(ctx, t, h, crewEndedEvent, c.ShareCrew, crewEndData{
		crew:    c,
		output:  finalOutput,
		version: t.version,
	})
}
