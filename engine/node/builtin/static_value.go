package builtin

import (
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// StaticValue emits its config's "value" field verbatim, ignoring inputs.
// It has no upstream dependency besides whatever link feeds it for
// ordering purposes, and is mainly useful for test fixtures and constants
// threaded into a subworkflow.
type StaticValue struct{}

func (StaticValue) InputSchema(node.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}

func (s StaticValue) OutputSchema(cfg node.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}

func (StaticValue) HasFixedOutput() bool { return true }

func (StaticValue) Execute(_ *node.ExecContext, cfg node.Config, _ core.Input) (node.Result, error) {
	return node.Outputs(core.Output{"value": cfg["value"]}), nil
}
