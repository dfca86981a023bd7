// Package llm bridges an Agent node's model calls to a real langchaingo
// provider, converting between the node's transcript/tool shape and
// llms.MessageContent.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node/builtin"
)

// Client adapts a core.ProviderConfig-backed langchaingo model to the
// builtin.ModelClient seam the Agent node executor calls through.
type Client struct {
	Model  llms.Model
	ctx    context.Context
}

// NewClient constructs a Client from a resolved provider configuration.
func NewClient(ctx context.Context, cfg *core.ProviderConfig) (*Client, error) {
	model, err := cfg.CreateLLM(nil)
	if err != nil {
		return nil, fmt.Errorf("create llm for provider %s: %w", cfg.Provider, err)
	}
	return &Client{Model: model, ctx: ctx}, nil
}

// Complete implements builtin.ModelClient.
func (c *Client) Complete(messages []core.Input, tools []builtin.ToolDescriptor) (builtin.ModelResponse, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role, _ := m["role"].(string)
		text := stringifyContent(m["content"])
		content = append(content, llms.TextParts(chatMessageType(role), text))
	}

	opts := []llms.CallOption{}
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(toLLMTools(tools)))
	}

	resp, err := c.Model.GenerateContent(c.ctx, content, opts...)
	if err != nil {
		return builtin.ModelResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return builtin.ModelResponse{Terminal: true, Message: ""}, nil
	}
	choice := resp.Choices[0]
	if len(choice.ToolCalls) == 0 {
		return builtin.ModelResponse{Terminal: true, Message: choice.Content}, nil
	}

	calls := make([]builtin.ToolCall, 0, len(choice.ToolCalls))
	for _, tc := range choice.ToolCalls {
		var args core.Input
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
			args = core.Input{}
		}
		calls = append(calls, builtin.ToolCall{ToolName: tc.FunctionCall.Name, Args: args})
	}
	return builtin.ModelResponse{ToolCalls: calls}, nil
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case "assistant":
		return llms.ChatMessageTypeAI
	case "system":
		return llms.ChatMessageTypeSystem
	case "tool":
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeHuman
	}
}

func stringifyContent(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func toLLMTools(tools []builtin.ToolDescriptor) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  map[string]any(t.InputSchema),
			},
		})
	}
	return out
}
