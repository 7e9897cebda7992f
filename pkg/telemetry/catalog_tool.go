package telemetry

import (
	"context"

	"github.com/fyrsmithlabs/crewtrace/pkg/crew"
)

// Span names for tool events.
const (
	SpanToolUsage         = "Tool Usage"
	SpanToolRepeatedUsage = "Tool Repeated Usage"
	SpanToolUsageError    = "Tool Usage Error"
)

type toolData struct {
	version  string
	llm      *crew.LLM
	tool     string
	attempts int
}

func llmModel(d toolData) any {
	if d.llm == nil {
		return nil
	}
	return d.llm.Model
}

var toolSchema = []Field[toolData]{
	always("crewai_version", func(d toolData) any { return d.version }),
	always("tool_name", func(d toolData) any { return d.tool }),
	always("attempts", func(d toolData) any { return d.attempts }),
	always("llm", llmModel),
}

var (
	toolUsageEvent         = Descriptor[toolData]{Name: SpanToolUsage, Schema: toolSchema}
	toolRepeatedUsageEvent = Descriptor[toolData]{Name: SpanToolRepeatedUsage, Schema: toolSchema}
	toolUsageErrorEvent    = Descriptor[toolData]{
		Name: SpanToolUsageError,
		Schema: []Field[toolData]{
			always("crewai_version", func(d toolData) any { return d.version }),
			always("llm", llmModel),
		},
	}
)

// Tool events carry no content, so they are emitted the same way whatever a
// crew's share flag says. Start and end of a tool call are separate spans and
// share no handle.

// ToolUsage records a tool call by an agent. llm may be nil.
func (t *Telemetry) ToolUsage(ctx context.Context, llm *crew.LLM, toolName string, attempts int) {
	if t == nil {
		return
	}
	emit(ctx, t, toolUsageEvent, false, toolData{version: t.version, llm: llm, tool: toolName, attempts: attempts})
}

// ToolRepeatedUsage records an agent calling the same tool with the same
// input again.
func (t *Telemetry) ToolRepeatedUsage(ctx context.Context, llm *crew.LLM, toolName string, attempts int) {
	if t == nil {
		return
	}
	emit(ctx, t, toolRepeatedUsageEvent, false, toolData{version: t.version, llm: llm, tool: toolName, attempts: attempts})
}

// ToolUsageError records a failed tool call.
func (t *Telemetry) ToolUsageError(ctx context.Context, llm *crew.LLM) {
	if t == nil {
		return
	}
	emit(ctx, t, toolUsageErrorEvent, false, toolData{version: t.version, llm: llm})
}
