// Package crew defines the plain snapshots the orchestration core hands to
// telemetry.
//
// Snapshots are values, not live objects. Telemetry reads them and never
// mutates them.
package crew

import (
	"github.com/google/uuid"
)

// Process modes understood by the orchestration core.
const (
	ProcessSequential   = "sequential"
	ProcessHierarchical = "hierarchical"
)

// Crew is a snapshot of an orchestration run.
type Crew struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Process   string    `json:"process"`
	Memory    bool      `json:"memory"`
	ShareCrew bool      `json:"share_crew"`
	Agents    []Agent   `json:"agents"`
	Tasks     []Task    `json:"tasks"`
}

// Agent is a snapshot of one crew participant.
type Agent struct {
	ID              uuid.UUID `json:"id"`
	Key             string    `json:"key"`
	Role            string    `json:"role"`
	Goal            string    `json:"goal,omitempty"`
	Backstory       string    `json:"backstory,omitempty"`
	Verbose         bool      `json:"verbose?"`
	MaxIter         int       `json:"max_iter,omitempty"`
	MaxRPM          int       `json:"max_rpm,omitempty"`
	AllowDelegation bool      `json:"delegation_enabled?"`
	LLM             string    `json:"llm,omitempty"`
	Tools           []string  `json:"tools_names,omitempty"`
}

// Task is a snapshot of one unit of work.
type Task struct {
	ID             uuid.UUID   `json:"id"`
	Key            string      `json:"key"`
	Description    string      `json:"description"`
	ExpectedOutput string      `json:"expected_output"`
	AsyncExecution bool        `json:"async_execution?"`
	HumanInput     bool        `json:"human_input?"`
	AgentRole      string      `json:"agent_role,omitempty"`
	AgentKey       string      `json:"agent_key,omitempty"`
	Tools          []string    `json:"tools_names,omitempty"`
	Output         *TaskOutput `json:"-"`
}

// TaskOutput holds the result of a finished task.
type TaskOutput struct {
	Raw string
}

// RawOutput returns the task's raw output, or "" when the task has not
// produced one.
func (t Task) RawOutput() string {
	if t.Output == nil {
		return ""
	}
	return t.Output.Raw
}

// Flow is a snapshot of a flow definition. Share opts the flow's structure
// (its node names) into telemetry.
type Flow struct {
	Name      string   `json:"name"`
	NodeNames []string `json:"node_names"`
	Share     bool     `json:"share"`
}

// LLM identifies the model an agent used. A nil *LLM means unknown.
type LLM struct {
	Model string `json:"model"`
}

// ModelName returns the model name, tolerating a nil receiver.
func (l *LLM) ModelName() string {
	if l == nil {
		return ""
	}
	return l.Model
}
