package builtin

import (
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// ModelClient is the seam between an Agent node and an actual LLM
// provider. Concrete provider internals (tokenization, streaming, retries)
// are out of scope here; callers inject whichever client they like.
type ModelClient interface {
	// Complete sends the running transcript plus tool descriptors and
	// returns either a terminal assistant message, or a tool call request.
	Complete(messages []core.Input, tools []ToolDescriptor) (ModelResponse, error)
}

// ToolDescriptor names a child tool node the agent may invoke.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema schema.Schema
}

// ModelResponse is what a ModelClient returns for one turn.
type ModelResponse struct {
	Terminal     bool
	Message      string
	ToolCalls    []ToolCall
}

// ToolCall is one invocation the model asked for.
type ToolCall struct {
	ToolName string
	Args     core.Input
}

const defaultMaxIterations = 10

// Agent is the Agent node executor. It repeatedly calls the model with
// the registered tool descriptors, dispatching any requested tool calls
// through ctx.Subrun against the tool's own node, until the model returns
// a terminal response or maxIterations is reached — whichever comes
// first.
type Agent struct {
	Client ModelClient
}

func (Agent) InputSchema(node.Config) (*schema.Schema, error) {
	s := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"message"},
	}
	return &s, nil
}

func (Agent) OutputSchema(node.Config) (*schema.Schema, error) {
	s := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"response": map[string]any{"type": "string"},
		},
	}
	return &s, nil
}

func (Agent) HasFixedOutput() bool { return true }

func (a Agent) Execute(ctx *node.ExecContext, cfg node.Config, inputs core.Input) (node.Result, error) {
	maxIterations := defaultMaxIterations
	if v, ok := cfg["maxIterations"].(float64); ok && v > 0 {
		maxIterations = int(v)
	}
	tools := toolDescriptorsFromConfig(cfg)

	transcript := []core.Input{{"role": "user", "content": inputs["message"]}}
	for i := 0; i < maxIterations; i++ {
		select {
		case <-ctx.Done():
			return node.Err(nodeErrCanceled("agent"))
		default:
		}
		resp, err := a.Client.Complete(transcript, tools)
		if err != nil {
			return node.Err(err)
		}
		if resp.Terminal {
			return node.Outputs(core.Output{"response": resp.Message}), nil
		}
		for _, call := range resp.ToolCalls {
			out, err := ctx.Subrun(call.ToolName, call.Args)
			if err != nil {
				return node.Err(err)
			}
			transcript = append(transcript, core.Input{
				"role":    "tool",
				"tool":    call.ToolName,
				"content": map[string]any(out),
			})
		}
	}
	return node.Outputs(core.Output{"response": "", "stopped_reason": "max_iterations"}), nil
}

func toolDescriptorsFromConfig(cfg node.Config) []ToolDescriptor {
	raw, ok := cfg["tools"].([]any)
	if !ok {
		return nil
	}
	out := make([]ToolDescriptor, 0, len(raw))
	for _, t := range raw {
		m, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		desc, _ := m["description"].(string)
		out = append(out, ToolDescriptor{Name: name, Description: desc})
	}
	return out
}
