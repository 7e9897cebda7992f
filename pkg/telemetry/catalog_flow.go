package telemetry

import (
	"context"

	"github.com/fyrsmithlabs/crewtrace/pkg/crew"
)

// Span names for flow events.
const (
	SpanFlowCreation  = "Flow Creation"
	SpanFlowPlotting  = "Flow Plotting"
	SpanFlowExecution = "Flow Execution"
)

func flowName(f crew.Flow) any { return f.Name }

func nodeNames(f crew.Flow) any {
	names := f.NodeNames
	if names == nil {
		names = []string{}
	}
	return JSON(names)
}

var (
	flowCreationEvent = Descriptor[crew.Flow]{
		Name:   SpanFlowCreation,
		Schema: []Field[crew.Flow]{always("flow_name", flowName)},
	}
	flowPlottingEvent = Descriptor[crew.Flow]{
		Name: SpanFlowPlotting,
		Schema: []Field[crew.Flow]{
			always("flow_name", flowName),
			optIn("node_names", nodeNames),
		},
	}
	flowExecutionEvent = Descriptor[crew.Flow]{
		Name: SpanFlowExecution,
		Schema: []Field[crew.Flow]{
			always("flow_name", flowName),
			optIn("node_names", nodeNames),
		},
	}
)

// FlowCreation records the definition of a flow.
func (t *Telemetry) FlowCreation(ctx context.Context, f crew.Flow) {
	emit(ctx, t, flowCreationEvent, f.Share, f)
}

// FlowPlotting records a flow being plotted. Node names are sent only when
// f.Share is set.
func (t *Telemetry) FlowPlotting(ctx context.Context, f crew.Flow) {
	emit(ctx, t, flowPlottingEvent, f.Share, f)
}

// FlowExecution records a flow being kicked off. Node names are sent only
// when f.Share is set.
func (t *Telemetry) FlowExecution(ctx context.Context, f crew.Flow) {
	emit(ctx, t, flowExecutionEvent, f.Share, f)
}
