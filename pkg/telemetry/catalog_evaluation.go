package telemetry

import (
	"context"
	"strconv"

	"github.com/fyrsmithlabs/crewtrace/pkg/crew"
)

// Span names for crew evaluation events.
const (
	SpanCrewTestExecution        = "Crew Test Execution"
	SpanCrewIndividualTestResult = "Crew Individual Test Result"
)

type testRunData struct {
	crew       crew.Crew
	version    string
	model      string
	iterations int
	inputs     map[string]any
}

type testResultData struct {
	crew     crew.Crew
	version  string
	model    string
	quality  float64
	execTime int
}

var testExecutionEvent = Descriptor[testRunData]{
	Name: SpanCrewTestExecution,
	Schema: []Field[testRunData]{
		always("crewai_version", func(d testRunData) any { return d.version }),
		always("crew_key", func(d testRunData) any { return d.crew.Key }),
		always("crew_id", func(d testRunData) any { return d.crew.ID.String() }),
		always("iterations", func(d testRunData) any { return strconv.Itoa(d.iterations) }),
		always("model_name", func(d testRunData) any { return d.model }),
		optIn("inputs", func(d testRunData) any { return inputsJSON(d.inputs) }),
	},
}

var individualTestResultEvent = Descriptor[testResultData]{
	Name: SpanCrewIndividualTestResult,
	Schema: []Field[testResultData]{
		always("crewai_version", func(d testResultData) any { return d.version }),
		always("crew_key", func(d testResultData) any { return d.crew.Key }),
		always("crew_id", func(d testResultData) any { return d.crew.ID.String() }),
		always("quality", func(d testResultData) any { return strconv.FormatFloat(d.quality, 'f', -1, 64) }),
		always("exec_time", func(d testResultData) any { return strconv.Itoa(d.execTime) }),
		always("model_name", func(d testResultData) any { return d.model }),
	},
}

// TestExecution records a crew test run of the given number of iterations
// evaluated by model.
func (t *Telemetry) TestExecution(ctx context.Context, c crew.Crew, iterations int, inputs map[string]any, model string) {
	if t == nil {
		return
	}
	emit(ctx, t, testExecutionEvent, c.ShareCrew, testRunData{
		crew:       c,
		version:    t.version,
		model:      model,
		iterations: iterations,
		inputs:     inputs,
	})
}

// IndividualTestResult records the score of one test iteration. execTime is
// in seconds.
func (t *Telemetry) IndividualTestResult(ctx context.Context, c crew.Crew, quality float64, execTime int, model string) {
	if t == nil {
		return
	}
	emit(ctx, t, individualTestResultEvent, c.ShareCrew, testResultData{
		crew:     c,
		version:  t.version,
		model:    model,
		quality:  quality,
		execTime: execTime,
	})
}
