package scheduler

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/task"
	wf "github.com/pyspur-dev/workflow-engine/engine/workflow"
)

// ExecuteResultKind discriminates an activity's outcome the same way
// node.Kind does, since node.Result itself is not a wire-safe type (it
// carries an `error`, which Temporal cannot always round-trip).
type ExecuteResultKind int

const (
	ExecuteResultOutputs ExecuteResultKind = iota
	ExecuteResultError
	ExecuteResultPause
)

// ExecuteNodeActivityInput is ExecuteNodeActivity's argument.
type ExecuteNodeActivityInput struct {
	RunID  core.ID
	Node   wf.Node
	Inputs map[string]any
}

// ExecuteNodeActivityResult is ExecuteNodeActivity's wire-safe result.
type ExecuteNodeActivityResult struct {
	Kind           ExecuteResultKind
	Outputs        core.Output
	Error          string
	PauseMessage   string
	RequiredFields []string
}

// Executors resolves a node type to its Executor implementation. It is
// package-level state set once at worker startup by RegisterExecutors,
// mirroring the registry's own construction pattern.
var executorsByType = map[string]node.Executor{}

// RegisterExecutors installs the node type -> Executor mapping the
// activity dispatches against. Call once before starting the Temporal
// worker.
func RegisterExecutors(executors map[string]node.Executor) {
	executorsByType = executors
}

// ExecuteNodeActivity runs one node's Executor.Execute and translates its
// node.Result into the wire-safe ExecuteNodeActivityResult. Failures
// classified as core.InfrastructureError are retried per the Activity's
// retry policy; core.NodeExecutionError and core.ModelProviderError are
// returned as non-retryable so they surface immediately as task failures.
func ExecuteNodeActivity(ctx context.Context, input ExecuteNodeActivityInput) (ExecuteNodeActivityResult, error) {
	executor, ok := executorsByType[input.Node.Type]
	if !ok {
		return ExecuteNodeActivityResult{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("no executor registered for node type %q", input.Node.Type), "unknown_node_type", nil)
	}

	execCtx := node.NewExecContext(nil, nil, "", ctx.Done())
	result, err := executor.Execute(execCtx, node.Config(input.Node.Config), core.Input(input.Inputs))
	if err != nil {
		var infraErr *core.InfrastructureError
		if asInfrastructureError(err, &infraErr) && infraErr.Retryable {
			return ExecuteNodeActivityResult{}, err
		}
		return ExecuteNodeActivityResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "node_execution_failed", err)
	}

	switch result.Kind {
	case node.KindOutputs:
		return ExecuteNodeActivityResult{Kind: ExecuteResultOutputs, Outputs: result.Outputs}, nil
	case node.KindPause:
		return ExecuteNodeActivityResult{
			Kind:           ExecuteResultPause,
			PauseMessage:   result.PauseMessage,
			RequiredFields: result.RequiredFields,
		}, nil
	default:
		errMsg := ""
		if result.Err != nil {
			errMsg = result.Err.Error()
		}
		return ExecuteNodeActivityResult{Kind: ExecuteResultError, Error: errMsg}, nil
	}
}

func asInfrastructureError(err error, target **core.InfrastructureError) bool {
	ie, ok := err.(*core.InfrastructureError)
	if !ok {
		return false
	}
	*target = ie
	return true
}

// Activities bundles the store-backed activities that are not pure
// functions of their input, so they can be registered as methods on a
// worker-constructed value (Temporal's supported pattern for activities
// needing injected dependencies, rather than passing an interface as an
// activity argument).
type Activities struct {
	TaskRepo task.Repository
}

// PersistTask writes a task's current state through the store before the
// scheduler treats its status transition as visible to observers,
// satisfying the read-your-writes requirement.
func (a *Activities) PersistTask(ctx context.Context, t *task.Task) error {
	return a.TaskRepo.Upsert(ctx, t)
}
