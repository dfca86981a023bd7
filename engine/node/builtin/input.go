// Package builtin implements the node types that ship with the engine
// itself, one file per type, registered into engine/registry by the
// scheduler at startup.
package builtin

import (
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// Input is the InputNode executor. Its outputs are exactly the run's
// initial inputs (or, for a chat run, the session's user_message,
// session_id and message_history); the scheduler assembles that map and
// passes it through as inputs, so Execute is a pure pass-through.
type Input struct{}

func (Input) InputSchema(cfg node.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}

func (Input) OutputSchema(cfg node.Config) (*schema.Schema, error) {
	s := schema.Schema(cfg)
	return &s, nil
}

func (Input) HasFixedOutput() bool { return false }

func (Input) Execute(_ *node.ExecContext, _ node.Config, inputs core.Input) (node.Result, error) {
	return node.Outputs(core.Output(inputs)), nil
}
