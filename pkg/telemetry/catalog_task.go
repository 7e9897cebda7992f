package telemetry

import (
	"context"

	"github.com/fyrsmithlabs/crewtrace/pkg/crew"
)

// Span names for task events.
const (
	SpanTaskCreated   = "Task Created"
	SpanTaskExecution = "Task Execution"
)

type taskData struct {
	crew crew.Crew
	task crew.Task
}

var taskSchema = []Field[taskData]{
	always("crew_key", func(d taskData) any { return d.crew.Key }),
	always("crew_id", func(d taskData) any { return d.crew.ID.String() }),
	always("task_key", func(d taskData) any { return d.task.Key }),
	always("task_id", func(d taskData) any { return d.task.ID.String() }),
	optIn("formatted_description", func(d taskData) any { return d.task.Description }),
	optIn("formatted_expected_output", func(d taskData) any { return d.task.ExpectedOutput }),
}

var (
	taskCreatedEvent   = Descriptor[taskData]{Name: SpanTaskCreated, Schema: taskSchema}
	taskExecutionEvent = Descriptor[taskData]{Name: SpanTaskExecution, Schema: taskSchema}

	taskEndedEvent = Descriptor[taskData]{
		Name: SpanTaskExecution,
		Schema: []Field[taskData]{
			optIn("task_output", func(d taskData) any { return d.task.RawOutput() }),
		},
	}
)

// TaskStarted records a Task Created span and opens the Task Execution span.
// The returned handle belongs to the caller, who passes it to TaskEnded
// exactly once. It is nil when telemetry is off or the span could not be
// opened.
func (t *Telemetry) TaskStarted(ctx context.Context, c crew.Crew, task crew.Task) *SpanHandle {
	if t == nil {
		return nil
	}
	data := taskData{crew: c, task: task}
	emit(ctx, t, taskCreatedEvent, c.ShareCrew, data)
	return open(ctx, t, taskExecutionEvent, c.ShareCrew, data)
}

// TaskEnded closes a Task Execution span, adding the task's output when the
// crew shares data. A nil handle is ignored.
func (t *Telemetry) TaskEnded(ctx context.Context, h *SpanHandle, task crew.Task, c crew.Crew) {
	if t == nil {
		return
	}
	closeSpan(ctx, t, h, taskEndedEvent, c.ShareCrew, taskData{crew: c, task: task})
}
