package builtin

import (
	"fmt"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// ForLoop is the group node executor for loop subworkflows. It iterates
// over the "iterable" input, running the node's nested definition once per
// element with the element plus loop index injected into the subrun's
// InputNode, and aggregates each iteration's OutputNode result into an
// ordered list. The actual per-iteration fan-out and concurrency gate live
// in the scheduler, which drives this type's Subworkflow field directly
// rather than calling Execute for each element; Execute itself covers the
// single-process (non-Temporal) path used by tests and the embedded CLI
// runner.
type ForLoop struct{}

func (ForLoop) InputSchema(node.Config) (*schema.Schema, error) {
	s := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"iterable": map[string]any{"type": "array"},
		},
		"required": []string{"iterable"},
	}
	return &s, nil
}

func (ForLoop) OutputSchema(node.Config) (*schema.Schema, error) {
	s := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"results": map[string]any{"type": "array"},
		},
	}
	return &s, nil
}

func (ForLoop) HasFixedOutput() bool { return true }

func (ForLoop) Execute(ctx *node.ExecContext, _ node.Config, inputs core.Input) (node.Result, error) {
	iterableVal, ok := inputs["iterable"]
	if !ok {
		return node.Err(fmt.Errorf("forloop: missing required input %q", "iterable"))
	}
	items, ok := iterableVal.([]any)
	if !ok {
		return node.Err(fmt.Errorf("forloop: input %q must be an array", "iterable"))
	}

	results := make([]any, len(items))
	for i, item := range items {
		select {
		case <-ctx.Done():
			return node.Err(fmt.Errorf("forloop: canceled at iteration %d", i))
		default:
		}
		out, err := ctx.Subrun(nil, core.Input{"element": item, "index": i})
		if err != nil {
			return node.Err(fmt.Errorf("forloop: iteration %d failed: %w", i, err))
		}
		results[i] = map[string]any(out)
	}
	return node.Outputs(core.Output{"results": results}), nil
}
