package scheduler

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/registry"
	"github.com/pyspur-dev/workflow-engine/engine/run"
	"github.com/pyspur-dev/workflow-engine/engine/task"
	wf "github.com/pyspur-dev/workflow-engine/engine/workflow"
)

// ResumeSignalName is the Temporal signal a paused RunWorkflow blocks on.
const ResumeSignalName = "pyspur.resume"

// CancelSignalName requests cooperative cancellation; in-flight node
// Activities finish but no new ones are dispatched.
const CancelSignalName = "pyspur.cancel"

// QueryStatus is the Temporal query type GetRunStatus polls.
const QueryStatus = "pyspur.status"

// ResumeSignal is the payload a resume call sends to a paused run.
type ResumeSignal struct {
	Action   run.ResumeAction `json:"action"`
	Inputs   core.Input       `json:"inputs,omitempty"`
	Comments string           `json:"comments,omitempty"`
	UserID   string           `json:"user_id,omitempty"`
}

// RunWorkflowInput starts one run of a workflow definition.
type RunWorkflowInput struct {
	RunID          core.ID
	Definition     *wf.Definition
	InitialInputs  core.Input
	PartialOutputs map[string]core.Output
	TargetNodeID   string // set for partial runs
	RerunPredecessors bool
	ParentTaskID   *core.ID
}

// RunWorkflowResult is RunWorkflow's return value.
type RunWorkflowResult struct {
	Status  core.StatusType
	Outputs core.Output
}

type StatusSnapshot struct {
	NodeID  string
	Status  core.StatusType
	Outputs core.Output
	Error   string
}

// RunWorkflow is the Temporal workflow implementing the scheduler. Each
// node execution is dispatched as an Activity once its dagState entry
// becomes ready; pauses block on ResumeSignalName, which durably survives
// worker/process restarts, and GetRunStatus is answered from the
// in-workflow projection below via a Query handler rather than the
// database.
func RunWorkflow(ctx workflow.Context, input RunWorkflowInput) (RunWorkflowResult, error) {
	state := newDAGState(input.Definition)
	limits := DefaultCategoryLimits()
	inFlight := make(map[registry.Category]int)

	tasks := make(map[string]*StatusSnapshot)
	canceled := false
	var pausedNodeID string
	var runOutputs core.Output

	if err := workflow.SetQueryHandler(ctx, QueryStatus, func() (map[string]StatusSnapshot, error) {
		out := make(map[string]StatusSnapshot, len(tasks))
		for id, v := range tasks {
			out[id] = *v
		}
		return out, nil
	}); err != nil {
		return RunWorkflowResult{}, fmt.Errorf("scheduler: registering status query: %w", err)
	}

	cancelCh := workflow.GetSignalChannel(ctx, CancelSignalName)
	workflow.Go(ctx, func(gctx workflow.Context) {
		var ignored bool
		cancelCh.Receive(gctx, &ignored)
		canceled = true
	})

	seedPartialOutputs(state, input, tasks)

	pending := map[string]workflow.Future{}
	selector := workflow.NewSelector(ctx)

	resumeCh := workflow.GetSignalChannel(ctx, ResumeSignalName)
	selector.AddReceive(resumeCh, func(c workflow.ReceiveChannel, _ bool) {
		var signal ResumeSignal
		c.Receive(ctx, &signal)
		if pausedNodeID == "" {
			return
		}
		resolvePausedNode(state, tasks, input.Definition, pausedNodeID, signal)
		pausedNodeID = ""
	})

	dispatch := func(nodeID string) {
		n, _ := input.Definition.NodeByID(nodeID)
		cat := categoryForNodeType(n.Type)
		if inFlight[cat] >= limits.limitFor(cat) {
			return
		}
		inFlight[cat]++
		state.MarkRunning(nodeID)
		tasks[nodeID] = &StatusSnapshot{NodeID: nodeID, Status: core.StatusRunning}

		ao := workflow.ActivityOptions{StartToCloseTimeout: 10 * time.Minute}
		actx := workflow.WithActivityOptions(ctx, ao)
		future := workflow.ExecuteActivity(actx, ExecuteNodeActivity, ExecuteNodeActivityInput{
			RunID:  input.RunID,
			Node:   *n,
			Inputs: state.Inputs(nodeID),
		})
		pending[nodeID] = future
		selector.AddFuture(future, func(f workflow.Future) {
			inFlight[cat]--
			paused := handleNodeCompletion(ctx, input.RunID, state, tasks, input.Definition, nodeID, f)
			if paused {
				pausedNodeID = nodeID
			}
			delete(pending, nodeID)
		})
	}

	for _, id := range state.ReadyNodes() {
		dispatch(id)
	}

	for !state.AllTerminal() {
		if len(pending) == 0 && pausedNodeID == "" {
			break
		}
		selector.Select(ctx)
		if canceled {
			break
		}
		if pausedNodeID != "" {
			continue
		}
		for _, id := range state.ReadyNodes() {
			dispatch(id)
		}
	}

	if canceled {
		return RunWorkflowResult{Status: core.StatusCanceled}, nil
	}

	for _, n := range input.Definition.Nodes {
		if n.Type == "OutputNode" {
			if t, ok := tasks[n.ID]; ok && t.Status == core.StatusSuccess {
				runOutputs = mergeOutputs(runOutputs, t.Outputs)
			}
		}
	}

	status := core.StatusSuccess
	for _, t := range tasks {
		if t.Status == core.StatusFailed {
			status = core.StatusFailed
			break
		}
	}
	return RunWorkflowResult{Status: status, Outputs: runOutputs}, nil
}

func seedPartialOutputs(state *dagState, input RunWorkflowInput, tasks map[string]*StatusSnapshot) {
	for nodeID, out := range input.PartialOutputs {
		tasks[nodeID] = &StatusSnapshot{NodeID: nodeID, Status: core.StatusSkipped, Outputs: out}
		state.MarkDone(nodeID)
		state.Resolve(nodeID, out, nil)
	}
}

// handleNodeCompletion applies one node's Activity result to the dag
// state and returns true when the run must now pause (the caller records
// which node paused and withholds further dispatch until a resume
// signal arrives).
func handleNodeCompletion(
	ctx workflow.Context,
	runID core.ID,
	state *dagState,
	tasks map[string]*StatusSnapshot,
	def *wf.Definition,
	nodeID string,
	f workflow.Future,
) bool {
	var out ExecuteNodeActivityResult
	if err := f.Get(ctx, &out); err != nil {
		tasks[nodeID].Status = core.StatusFailed
		tasks[nodeID].Error = err.Error()
		state.MarkFailed(nodeID)
		cascadeUpstreamFailure(state, def, tasks, nodeID)
		persistTaskSnapshot(ctx, runID, tasks[nodeID])
		return false
	}

	paused := false
	switch out.Kind {
	case ExecuteResultPause:
		tasks[nodeID].Status = core.StatusPaused
		paused = true
	case ExecuteResultError:
		tasks[nodeID].Status = core.StatusFailed
		tasks[nodeID].Error = out.Error
		state.MarkFailed(nodeID)
		cascadeUpstreamFailure(state, def, tasks, nodeID)
	default:
		tasks[nodeID].Status = core.StatusSuccess
		tasks[nodeID].Outputs = out.Outputs
		state.MarkDone(nodeID)
		var selected *string
		if n, ok := def.NodeByID(nodeID); ok && n.Type == "RouterNode" {
			if sel, ok := out.Outputs["selected"].(string); ok {
				selected = &sel
			}
		}
		state.Resolve(nodeID, out.Outputs, selected)
	}
	persistTaskSnapshot(ctx, runID, tasks[nodeID])
	return paused
}

// resolvePausedNode applies a resume decision to the node that was
// blocking the run: APPROVE replays the pause's recorded inputs as
// outputs, OVERRIDE substitutes the signal's inputs, DECLINE fails the
// node. Either way the node's dag edges are resolved so downstream
// dispatch can continue.
func resolvePausedNode(state *dagState, tasks map[string]*StatusSnapshot, def *wf.Definition, nodeID string, signal ResumeSignal) {
	snap := tasks[nodeID]
	switch signal.Action {
	case run.ResumeDecline:
		snap.Status = core.StatusFailed
		snap.Error = "declined by reviewer"
		state.MarkFailed(nodeID)
		cascadeUpstreamFailure(state, def, tasks, nodeID)
		return
	case run.ResumeOverride:
		snap.Outputs = core.Output(signal.Inputs)
	default: // APPROVE
		snap.Outputs = core.Output(state.Inputs(nodeID))
	}
	snap.Status = core.StatusSuccess
	state.MarkDone(nodeID)
	state.Resolve(nodeID, snap.Outputs, nil)
}

// persistTaskSnapshot runs the PersistTask activity (registered on a
// worker-constructed *Activities) so the task's transition is durably
// written before GetRunStatus callers can observe it — the engine's
// read-your-writes requirement. It is called by registered activity name
// rather than function reference since the workflow has no access to the
// worker's *Activities instance.
func persistTaskSnapshot(ctx workflow.Context, runID core.ID, snap *StatusSnapshot) {
	ao := workflow.ActivityOptions{StartToCloseTimeout: time.Minute}
	actx := workflow.WithActivityOptions(ctx, ao)
	t := task.New(runID, snap.NodeID, nil)
	t.Status = snap.Status
	t.Outputs = snap.Outputs
	if snap.Error != "" {
		t.Error = core.NewError(fmt.Errorf("%s", snap.Error), "task_error", nil)
	}
	_ = workflow.ExecuteActivity(actx, "PersistTask", t)
}

func cascadeUpstreamFailure(state *dagState, def *wf.Definition, tasks map[string]*StatusSnapshot, failedNodeID string) {
	for _, l := range def.OutgoingLinks(failedNodeID) {
		target := l.TargetID
		if _, already := tasks[target]; already {
			continue
		}
		tasks[target] = &StatusSnapshot{NodeID: target, Status: core.StatusCanceled, Error: "upstream_failed"}
		state.MarkFailed(target)
		cascadeUpstreamFailure(state, def, tasks, target)
	}
}

func mergeOutputs(acc core.Output, next core.Output) core.Output {
	if acc == nil {
		acc = core.Output{}
	}
	for k, v := range next {
		acc[k] = v
	}
	return acc
}

func categoryForNodeType(nodeType string) registry.Category {
	switch nodeType {
	case "InputNode":
		return registry.CategoryInput
	case "OutputNode":
		return registry.CategoryOutput
	case "RouterNode", "HumanInterventionNode":
		return registry.CategoryLogic
	case "ForLoop":
		return registry.CategoryLoop
	case "AgentNode":
		return registry.CategoryAgent
	case "PythonFuncNode", "StaticValueNode":
		return registry.CategoryPrimitive
	default:
		return registry.CategoryIntegration
	}
}
