package builtin

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// Router is the RouterNode executor. It evaluates route_map entries in
// declared order and emits the first match's name as "selected"; the
// scheduler uses that value to decide which outgoing link (by
// SourceHandle) carries data and which are treated as absent.
type Router struct{}

// routeConfig is route_map's wire shape: {route_name: {conditions, order}}.
type routeConfig struct {
	Conditions []schema.Condition     `json:"conditions"`
	Order      int                    `json:"order"`
}

func (Router) InputSchema(cfg node.Config) (*schema.Schema, error) {
	return &schema.Schema{}, nil
}

func (Router) OutputSchema(node.Config) (*schema.Schema, error) {
	s := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"selected": map[string]any{"type": []string{"string", "null"}},
		},
	}
	return &s, nil
}

func (Router) HasFixedOutput() bool { return true }

func (Router) Execute(_ *node.ExecContext, cfg node.Config, inputs core.Input) (node.Result, error) {
	routeMap, err := parseRouteMap(cfg)
	if err != nil {
		return node.Result{}, err
	}
	names := make([]string, 0, len(routeMap))
	for name := range routeMap {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return routeMap[names[i]].Order < routeMap[names[j]].Order })

	for _, name := range names {
		matched, err := schema.EvaluateConditions(routeMap[name].Conditions, inputs.AsMap())
		if err != nil {
			return node.Result{}, err
		}
		if matched {
			return node.Outputs(core.Output{"selected": name}), nil
		}
	}
	return node.Outputs(core.Output{"selected": nil}), nil
}

func parseRouteMap(cfg node.Config) (map[string]routeConfig, error) {
	raw, ok := cfg["route_map"]
	if !ok {
		return map[string]routeConfig{}, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("router: invalid route_map: %w", err)
	}
	var parsed map[string]routeConfig
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, fmt.Errorf("router: invalid route_map: %w", err)
	}
	// Order is a tie-breaker among routes not otherwise ordered: routes
	// with Order == 0 keep declaration order by falling back to the map's
	// insertion scan, which Go does not guarantee, so callers that care
	// about ties should set Order explicitly.
	return parsed, nil
}
