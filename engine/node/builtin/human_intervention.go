package builtin

import (
	"fmt"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// HumanIntervention always pauses on its first Execute; the scheduler is
// responsible for recording the PauseEvent and re-invoking the node's
// resume path (not Execute) once a human resolves it, passing the
// resolved action in through cfg["__resume_action__"] and
// cfg["__resume_inputs__"] so a single Executor still handles both paths.
type HumanIntervention struct{}

func (HumanIntervention) InputSchema(node.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}

func (HumanIntervention) OutputSchema(node.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}

func (HumanIntervention) HasFixedOutput() bool { return false }

func (HumanIntervention) Execute(_ *node.ExecContext, cfg node.Config, inputs core.Input) (node.Result, error) {
	action, resumed := cfg["__resume_action__"].(string)
	if !resumed {
		message, _ := cfg["pause_message"].(string)
		required, _ := cfg["required_fields"].([]string)
		return node.Pause(message, required), nil
	}

	switch action {
	case "APPROVE":
		pauseInputs, _ := cfg["__pause_input_data__"].(map[string]any)
		return node.Outputs(core.Output(pauseInputs)), nil
	case "OVERRIDE":
		resumeInputs, _ := cfg["__resume_inputs__"].(map[string]any)
		return node.Outputs(core.Output(resumeInputs)), nil
	case "DECLINE":
		return node.Err(fmt.Errorf("human_intervention: declined by reviewer")), nil
	default:
		return node.Err(fmt.Errorf("human_intervention: unknown resume action %q", action)), nil
	}
}
