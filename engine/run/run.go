// Package run holds the Run entity: one execution of a workflow version.
package run

import (
	"time"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// Type classifies how a Run was started.
type Type string

const (
	TypeInteractive Type = "interactive"
	TypeBatch       Type = "batch"
	TypePartial     Type = "partial"
	TypeChat        Type = "chat"
)

// Run is one execution of a workflow version. Its status lifecycle is
// PENDING -> RUNNING -> (PAUSED <-> RUNNING) -> (COMPLETED | FAILED | CANCELED).
type Run struct {
	ID            core.ID         `json:"id"              yaml:"id"`
	WorkflowID    core.ID         `json:"workflow_id"     yaml:"workflow_id"`
	VersionID     core.ID         `json:"version_id"      yaml:"version_id"`
	Status        core.StatusType `json:"status"          yaml:"status"`
	RunType       Type            `json:"run_type"        yaml:"run_type"`
	InitialInputs core.Input      `json:"initial_inputs"  yaml:"initial_inputs"`
	Outputs       core.Output     `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	ParentRunID   *core.ID        `json:"parent_run_id,omitempty" yaml:"parent_run_id,omitempty"`
	StartTime     time.Time       `json:"start_time"      yaml:"start_time"`
	EndTime       *time.Time      `json:"end_time,omitempty" yaml:"end_time,omitempty"`
}

// New creates a PENDING run for the given workflow version.
func New(workflowID, versionID core.ID, runType Type, initialInputs core.Input, parentRunID *core.ID) *Run {
	return &Run{
		ID:            core.MustNewID(),
		WorkflowID:    workflowID,
		VersionID:     versionID,
		Status:        core.StatusPending,
		RunType:       runType,
		InitialInputs: initialInputs,
		ParentRunID:   parentRunID,
		StartTime:     time.Now(),
	}
}

// Start transitions the run to RUNNING.
func (r *Run) Start() {
	r.Status = core.StatusRunning
}

// Pause transitions the run to PAUSED, e.g. on a human-intervention node.
func (r *Run) Pause() {
	r.Status = core.StatusPaused
}

// Resume transitions a PAUSED run back to RUNNING.
func (r *Run) Resume() {
	r.Status = core.StatusRunning
}

// Complete transitions the run to COMPLETED with the given outputs.
func (r *Run) Complete(outputs core.Output) {
	r.finish(core.StatusSuccess)
	r.Outputs = outputs
}

// Fail transitions the run to FAILED.
func (r *Run) Fail() {
	r.finish(core.StatusFailed)
}

// Cancel transitions the run to CANCELED.
func (r *Run) Cancel() {
	r.finish(core.StatusCanceled)
}

func (r *Run) finish(status core.StatusType) {
	now := time.Now()
	r.EndTime = &now
	r.Status = status
}
