package run

import (
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/task"
)

// TaskStatus is the per-task projection returned by GetRunStatus; it
// carries only what a poller needs, not the full Task record.
type TaskStatus struct {
	NodeID  string          `json:"node_id"`
	Status  core.StatusType `json:"status"`
	Outputs core.Output     `json:"outputs,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Status is the read model a Run Controller returns from GetRunStatus. In
// the scheduler it is answered directly from in-workflow state via a
// Temporal query, never from the database, so polling stays cheap and
// consistent with the workflow's own view of progress.
type Status struct {
	RunID              core.ID                `json:"run_id"`
	RunStatus          core.StatusType        `json:"run_status"`
	Tasks              []TaskStatus           `json:"tasks"`
	PercentageComplete float64                `json:"percentage_complete"`
	Outputs            core.Output            `json:"outputs,omitempty"`
}

// NewStatus builds a Status projection from a run and its current tasks.
func NewStatus(r *Run, tasks []*task.Task) *Status {
	info := task.NewProgressInfo(tasks)
	out := make([]TaskStatus, 0, len(tasks))
	for _, t := range tasks {
		ts := TaskStatus{NodeID: t.NodeID, Status: t.Status, Outputs: t.Outputs}
		if t.Error != nil {
			ts.Error = t.Error.Error()
		}
		out = append(out, ts)
	}
	return &Status{
		RunID:              r.ID,
		RunStatus:          r.Status,
		Tasks:              out,
		PercentageComplete: info.CompletionRate,
		Outputs:            r.Outputs,
	}
}
