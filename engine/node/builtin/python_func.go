package builtin

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// PythonFunc runs a user-supplied script, via an embedded Starlark
// interpreter rather than an actual Python runtime: Starlark is a real
// sandboxed scripting VM (no host filesystem/network access by default)
// already pulled in transitively by the templating stack, and is close
// enough to Python syntax for simple field transforms. A script receives
// its node inputs as the global `inputs` dict and must assign an
// `outputs` dict before returning.
type PythonFunc struct{}

func (PythonFunc) InputSchema(node.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}

func (PythonFunc) OutputSchema(node.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}

func (PythonFunc) HasFixedOutput() bool { return false }

func (PythonFunc) Execute(ctx *node.ExecContext, cfg node.Config, inputs core.Input) (node.Result, error) {
	script, ok := cfg["code"].(string)
	if !ok || script == "" {
		return node.Err(fmt.Errorf("python_func: missing required config field %q", "code"))
	}

	inputsVal, err := toStarlarkValue(map[string]any(inputs))
	if err != nil {
		return node.Err(fmt.Errorf("python_func: converting inputs: %w", err))
	}

	thread := &starlark.Thread{Name: "python_func"}
	globals := starlark.StringDict{"inputs": inputsVal}
	result, err := starlark.ExecFile(thread, "node.star", script, globals)
	if err != nil {
		return node.Err(fmt.Errorf("python_func: script error: %w", err))
	}

	outVal, ok := result["outputs"]
	if !ok {
		return node.Err(fmt.Errorf("python_func: script must assign an %q value", "outputs"))
	}
	out, err := fromStarlarkValue(outVal)
	if err != nil {
		return node.Err(fmt.Errorf("python_func: converting outputs: %w", err))
	}
	outMap, ok := out.(map[string]any)
	if !ok {
		return node.Err(fmt.Errorf("python_func: %q must be a dict", "outputs"))
	}
	return node.Outputs(core.Output(outMap)), nil
}

func toStarlarkValue(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case string:
		return starlark.String(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case []any:
		items := make([]starlark.Value, len(val))
		for i, e := range val {
			sv, err := toStarlarkValue(e)
			if err != nil {
				return nil, err
			}
			items[i] = sv
		}
		return starlark.NewList(items), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, e := range val {
			sv, err := toStarlarkValue(e)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func fromStarlarkValue(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		n, _ := val.Int64()
		return n, nil
	case starlark.Float:
		return float64(val), nil
	case *starlark.List:
		out := make([]any, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			e, err := fromStarlarkValue(val.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			k, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict keys must be strings")
			}
			e, err := fromStarlarkValue(item[1])
			if err != nil {
				return nil, err
			}
			out[string(k)] = e
		}
		return out, nil
	case *starlarkstruct.Struct:
		return nil, fmt.Errorf("structs are not supported in outputs")
	default:
		return nil, fmt.Errorf("unsupported starlark value %T", v)
	}
}
