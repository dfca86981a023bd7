// Package runctl implements the Run Controller: the in-process API the
// CLI and chat adapter call to start, inspect, and steer workflow runs. It
// owns no execution logic of its own — every call is a thin translation to
// a Temporal client.Client operation against engine/scheduler.RunWorkflow,
// plus the repository reads/writes that keep the task/run stores current.
package runctl

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/run"
	"github.com/pyspur-dev/workflow-engine/engine/scheduler"
	"github.com/pyspur-dev/workflow-engine/engine/task"
	wf "github.com/pyspur-dev/workflow-engine/engine/workflow"
)

// Controller is the Run Controller. It is safe for concurrent use.
type Controller struct {
	Temporal  client.Client
	TaskQueue string
	Workflows wf.Repository
	Runs      run.Repository
	Pauses    run.PauseRepository
	Tasks     task.Repository
}

// StartRun starts a new run of a workflow's current version.
func (c *Controller) StartRun(ctx context.Context, workflowID core.ID, inputs core.Input) (*run.Run, error) {
	w, err := c.Workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("runctl: get workflow: %w", err)
	}
	version, err := c.Workflows.GetVersion(ctx, w.CurrentVersion)
	if err != nil {
		return nil, fmt.Errorf("runctl: get current version: %w", err)
	}
	r := run.New(w.ID, version.ID, run.TypeInteractive, inputs, nil)
	if err := c.Runs.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("runctl: create run: %w", err)
	}
	if err := c.startWorkflow(ctx, r, version.Definition, scheduler.RunWorkflowInput{
		RunID:         r.ID,
		Definition:    version.Definition,
		InitialInputs: inputs,
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// PartialRun re-executes a workflow starting from targetNodeID. When
// rerunPredecessors is false, partialOutputs must supply every
// predecessor's output so the scheduler can seed them without
// re-executing; when true, every node upstream of targetNodeID is
// recomputed from InitialInputs and partialOutputs is ignored.
func (c *Controller) PartialRun(
	ctx context.Context,
	workflowID, versionID core.ID,
	targetNodeID string,
	partialOutputs map[string]core.Output,
	rerunPredecessors bool,
	initialInputs core.Input,
) (*run.Run, error) {
	version, err := c.Workflows.GetVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("runctl: get version: %w", err)
	}
	r := run.New(workflowID, versionID, run.TypePartial, initialInputs, nil)
	if err := c.Runs.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("runctl: create run: %w", err)
	}

	input := scheduler.RunWorkflowInput{
		RunID:             r.ID,
		Definition:        version.Definition,
		InitialInputs:     initialInputs,
		TargetNodeID:      targetNodeID,
		RerunPredecessors: rerunPredecessors,
	}
	if !rerunPredecessors {
		input.PartialOutputs = partialOutputs
	}
	if err := c.startWorkflow(ctx, r, version.Definition, input); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Controller) startWorkflow(ctx context.Context, r *run.Run, _ *wf.Definition, input scheduler.RunWorkflowInput) error {
	opts := client.StartWorkflowOptions{
		ID:        string(r.ID),
		TaskQueue: c.TaskQueue,
	}
	_, err := c.Temporal.ExecuteWorkflow(ctx, opts, scheduler.RunWorkflow, input)
	if err != nil {
		r.Fail()
		_ = c.Runs.Update(ctx, r)
		return fmt.Errorf("runctl: start workflow: %w", err)
	}
	r.Start()
	return c.Runs.Update(ctx, r)
}

// GetRunStatus answers a status poll from the workflow's live Query
// handler when the run is still executing Temporal-side, falling back to
// the task store's view once the run has reached a terminal state and the
// workflow execution is gone.
func (c *Controller) GetRunStatus(ctx context.Context, runID core.ID) (*run.Status, error) {
	r, err := c.Runs.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("runctl: get run: %w", err)
	}
	if !r.Status.IsTerminal() {
		if val, qerr := c.Temporal.QueryWorkflow(ctx, string(runID), "", scheduler.QueryStatus); qerr == nil {
			var snapshots map[string]scheduler.StatusSnapshot
			if err := val.Get(&snapshots); err == nil {
				return statusFromSnapshots(r, snapshots), nil
			}
		}
	}
	tasks, err := c.Tasks.List(ctx, task.Filter{RunID: runID})
	if err != nil {
		return nil, fmt.Errorf("runctl: list tasks: %w", err)
	}
	return run.NewStatus(r, tasks), nil
}

func statusFromSnapshots(r *run.Run, snapshots map[string]scheduler.StatusSnapshot) *run.Status {
	tasks := make([]*task.Task, 0, len(snapshots))
	for nodeID, snap := range snapshots {
		t := task.New(r.ID, nodeID, nil)
		t.Status = snap.Status
		t.Outputs = snap.Outputs
		if snap.Error != "" {
			t.Error = core.NewError(fmt.Errorf("%s", snap.Error), "task_error", nil)
		}
		tasks = append(tasks, t)
	}
	return run.NewStatus(r, tasks)
}

// StopRun cancels a running workflow cooperatively: in-flight node
// Activities finish, no new ones are dispatched.
func (c *Controller) StopRun(ctx context.Context, runID core.ID) error {
	if err := c.Temporal.SignalWorkflow(ctx, string(runID), "", scheduler.CancelSignalName, nil); err != nil {
		return fmt.Errorf("runctl: signal cancel: %w", err)
	}
	r, err := c.Runs.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("runctl: get run: %w", err)
	}
	r.Cancel()
	return c.Runs.Update(ctx, r)
}

// ResumePaused resolves an open pause event on a run that suspended at a
// human-intervention node, sending the resume decision on to the workflow
// and closing out the PauseEvent row.
func (c *Controller) ResumePaused(
	ctx context.Context,
	runID core.ID,
	action run.ResumeAction,
	userID string,
	inputs core.Input,
	comments string,
) error {
	pause, err := c.Pauses.GetOpenByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("runctl: get open pause: %w", err)
	}
	signal := scheduler.ResumeSignal{Action: action, Inputs: inputs, Comments: comments, UserID: userID}
	if err := c.Temporal.SignalWorkflow(ctx, string(runID), "", scheduler.ResumeSignalName, signal); err != nil {
		return fmt.Errorf("runctl: signal resume: %w", err)
	}
	pause.Resolve(action, userID, inputs, comments)
	if err := c.Pauses.Update(ctx, pause); err != nil {
		return fmt.Errorf("runctl: close pause event: %w", err)
	}
	r, err := c.Runs.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("runctl: get run: %w", err)
	}
	r.Resume()
	return c.Runs.Update(ctx, r)
}

// ListWorkflowRuns returns every run recorded for a workflow, most recent
// storage order first (the repository's own ordering).
func (c *Controller) ListWorkflowRuns(ctx context.Context, workflowID core.ID) ([]*run.Run, error) {
	runs, err := c.Runs.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("runctl: list runs: %w", err)
	}
	return runs, nil
}

// AwaitResult blocks until the run's workflow execution completes,
// returning its final result. Used by callers (e.g. the chat adapter) that
// need a synchronous reply rather than a poll loop.
func (c *Controller) AwaitResult(ctx context.Context, runID core.ID, timeout time.Duration) (scheduler.RunWorkflowResult, error) {
	wctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	exec := c.Temporal.GetWorkflow(wctx, string(runID), "")
	var result scheduler.RunWorkflowResult
	if err := exec.Get(wctx, &result); err != nil {
		return scheduler.RunWorkflowResult{}, fmt.Errorf("runctl: await run: %w", err)
	}
	return result, nil
}
