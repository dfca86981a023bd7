package builtin

import (
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// Output is the OutputNode executor. Its inputs become the run's outputs
// verbatim; for chatbot spurs the validator already guarantees an
// assistant_message field is declared in its config.
type Output struct{}

func (Output) InputSchema(cfg node.Config) (*schema.Schema, error) {
	s := schema.Schema(cfg)
	return &s, nil
}

func (Output) OutputSchema(cfg node.Config) (*schema.Schema, error) {
	s := schema.Schema(cfg)
	return &s, nil
}

func (Output) HasFixedOutput() bool { return false }

func (Output) Execute(_ *node.ExecContext, _ node.Config, inputs core.Input) (node.Result, error) {
	return node.Outputs(core.Output(inputs)), nil
}
