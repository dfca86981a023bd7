// Package task holds the Task entity: one node execution within a Run.
package task

import (
	"time"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// Task is a single node execution. It is at-most-one per (RunID, NodeID,
// ParentTaskID) in non-loop context; loop iterations mint a fresh
// ParentTaskID scope so multiple tasks per node are permitted there.
type Task struct {
	ID                core.ID        `json:"id"                  yaml:"id"`
	RunID             core.ID        `json:"run_id"              yaml:"run_id"`
	NodeID            string         `json:"node_id"             yaml:"node_id"`
	ParentTaskID      *core.ID       `json:"parent_task_id,omitempty" yaml:"parent_task_id,omitempty"`
	Status            core.StatusType `json:"status"              yaml:"status"`
	Inputs            core.Input     `json:"inputs,omitempty"    yaml:"inputs,omitempty"`
	Outputs           core.Output    `json:"outputs,omitempty"   yaml:"outputs,omitempty"`
	Error             *core.Error    `json:"error,omitempty"     yaml:"error,omitempty"`
	StartTime         *time.Time     `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime           *time.Time     `json:"end_time,omitempty"  yaml:"end_time,omitempty"`
	Subworkflow       bool           `json:"subworkflow"         yaml:"subworkflow"`
	SubworkflowOutput []core.Output  `json:"subworkflow_output,omitempty" yaml:"subworkflow_output,omitempty"`
}

// New creates a PENDING task for the given run/node/parent scope.
func New(runID core.ID, nodeID string, parentTaskID *core.ID) *Task {
	return &Task{
		ID:           core.MustNewID(),
		RunID:        runID,
		NodeID:       nodeID,
		ParentTaskID: parentTaskID,
		Status:       core.StatusPending,
	}
}

// Start transitions the task to RUNNING and records the inputs it was
// dispatched with.
func (t *Task) Start(inputs core.Input) {
	now := time.Now()
	t.StartTime = &now
	t.Status = core.StatusRunning
	t.Inputs = inputs
}

// Complete transitions the task to COMPLETED with the given outputs.
func (t *Task) Complete(outputs core.Output) {
	t.finish(core.StatusSuccess)
	t.Outputs = outputs
}

// Fail transitions the task to FAILED, recording err.
func (t *Task) Fail(err *core.Error) {
	t.finish(core.StatusFailed)
	t.Error = err
}

// Pause transitions the task to PAUSED. Unlike the other terminal
// transitions it does not set EndTime: a paused task resumes later.
func (t *Task) Pause() {
	t.Status = core.StatusPaused
}

// Cancel transitions the task to CANCELED, used both for explicit
// cancellation and for router/upstream-failure skip propagation.
func (t *Task) Cancel(reason string) {
	t.finish(core.StatusCanceled)
	if reason != "" {
		t.Error = core.NewError(nil, "canceled", map[string]any{"reason": reason})
	}
}

// Skip marks a task CANCELED with the "skipped" reason, used when a
// required input resolves absent per the scheduler's dependency model.
func (t *Task) Skip() {
	t.Cancel("skipped")
}

func (t *Task) finish(status core.StatusType) {
	now := time.Now()
	t.EndTime = &now
	t.Status = status
}

// IsSkipped reports whether this task was canceled because an upstream
// required input resolved absent, rather than by explicit cancellation.
func (t *Task) IsSkipped() bool {
	return t.Status == core.StatusCanceled && t.Error != nil && t.Error.Details["reason"] == "skipped"
}
