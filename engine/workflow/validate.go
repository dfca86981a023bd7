package workflow

import (
	"fmt"
	"regexp"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

const (
	nodeTypeInput  = "InputNode"
	nodeTypeOutput = "OutputNode"
	nodeTypeRouter = "RouterNode"
	nodeTypeLoop   = "ForLoop"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate runs the workflow validator's seven checks against the
// definition and every nested subworkflow scope, aggregating every
// violation it finds rather than stopping at the first.
func (d *Definition) Validate() error {
	var violations []string
	d.validateScope("", &violations)
	if d.SpurType == SpurChatbot {
		validateChatbotContract(d, &violations)
	}
	if len(violations) > 0 {
		return core.NewValidationError(violations)
	}
	return nil
}

func (d *Definition) validateScope(scopePath string, violations *[]string) {
	checkExactlyOneInput(d, scopePath, violations)
	checkOutputReachable(d, scopePath, violations)
	checkLinkEndpointsExist(d, scopePath, violations)
	checkNoDisallowedCycles(d, scopePath, violations)
	checkRouterHandles(d, scopePath, violations)
	checkTitlesValidAndUnique(d, scopePath, violations)

	for _, n := range d.Nodes {
		if n.Subworkflow != nil {
			n.Subworkflow.validateScope(scopePath+"/"+n.Title, violations)
		}
	}
}

func checkExactlyOneInput(d *Definition, scope string, violations *[]string) {
	count := 0
	for _, n := range d.Nodes {
		if n.Type == nodeTypeInput {
			count++
		}
	}
	if count != 1 {
		*violations = append(*violations, fmt.Sprintf("scope %q: expected exactly one InputNode, found %d", scopeLabel(scope), count))
	}
}

func checkOutputReachable(d *Definition, scope string, violations *[]string) {
	var input *Node
	for i := range d.Nodes {
		if d.Nodes[i].Type == nodeTypeInput {
			input = &d.Nodes[i]
			break
		}
	}
	if input == nil {
		return
	}
	reachable := map[string]bool{input.ID: true}
	queue := []string{input.ID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range d.OutgoingLinks(cur) {
			if !reachable[l.TargetID] {
				reachable[l.TargetID] = true
				queue = append(queue, l.TargetID)
			}
		}
	}
	for _, n := range d.Nodes {
		if n.Type == nodeTypeOutput && reachable[n.ID] {
			return
		}
	}
	*violations = append(*violations, fmt.Sprintf("scope %q: no OutputNode reachable from the InputNode", scopeLabel(scope)))
}

func checkLinkEndpointsExist(d *Definition, scope string, violations *[]string) {
	for _, l := range d.Links {
		if _, ok := d.NodeByID(l.SourceID); !ok {
			*violations = append(*violations, fmt.Sprintf("scope %q: link source %q does not exist in this scope", scopeLabel(scope), l.SourceID))
		}
		if _, ok := d.NodeByID(l.TargetID); !ok {
			*violations = append(*violations, fmt.Sprintf("scope %q: link target %q does not exist in this scope", scopeLabel(scope), l.TargetID))
		}
	}
}

// checkNoDisallowedCycles runs a DFS over the scope's own link graph. Loop
// groups are modeled as a single node in this scope (their internal cycle
// lives in the subworkflow's own scope), so any cycle found here is a
// violation.
func checkNoDisallowedCycles(d *Definition, scope string, violations *[]string) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(d.Nodes))
	for _, n := range d.Nodes {
		color[n.ID] = white
	}
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, l := range d.OutgoingLinks(id) {
			switch color[l.TargetID] {
			case gray:
				return true
			case white:
				if visit(l.TargetID) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}
	for _, n := range d.Nodes {
		if color[n.ID] == white && visit(n.ID) {
			*violations = append(*violations, fmt.Sprintf("scope %q: cycle detected among non-loop nodes", scopeLabel(scope)))
			return
		}
	}
}

func checkRouterHandles(d *Definition, scope string, violations *[]string) {
	for _, n := range d.Nodes {
		if n.Type != nodeTypeRouter {
			continue
		}
		routeNames := routeNamesFromConfig(n.Config)
		for _, l := range d.OutgoingLinks(n.ID) {
			if l.SourceHandle == nil {
				continue
			}
			if !routeNames[*l.SourceHandle] {
				*violations = append(*violations, fmt.Sprintf(
					"scope %q: router %q source_handle %q is not declared in its route_map",
					scopeLabel(scope), n.Title, *l.SourceHandle))
			}
		}
	}
}

func routeNamesFromConfig(cfg map[string]any) map[string]bool {
	names := map[string]bool{}
	raw, ok := cfg["route_map"].(map[string]any)
	if !ok {
		return names
	}
	for name := range raw {
		names[name] = true
	}
	return names
}

func checkTitlesValidAndUnique(d *Definition, scope string, violations *[]string) {
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if !identifierRe.MatchString(n.Title) {
			*violations = append(*violations, fmt.Sprintf("scope %q: node title %q is not a valid identifier", scopeLabel(scope), n.Title))
		}
		if seen[n.Title] {
			*violations = append(*violations, fmt.Sprintf("scope %q: node title %q is not unique in this scope", scopeLabel(scope), n.Title))
		}
		seen[n.Title] = true
	}
}

func validateChatbotContract(d *Definition, violations *[]string) {
	input, hasInput := d.firstOfType(nodeTypeInput)
	output, hasOutput := d.firstOfType(nodeTypeOutput)
	if hasInput {
		for _, field := range []string{"user_message", "session_id", "message_history"} {
			if !fieldDeclared(input.Config, field) {
				*violations = append(*violations, fmt.Sprintf("chatbot InputNode must declare %q", field))
			}
		}
	}
	if hasOutput {
		if !fieldDeclared(output.Config, "assistant_message") {
			*violations = append(*violations, "chatbot OutputNode must declare \"assistant_message\"")
		}
	}
}

func (d *Definition) firstOfType(nodeType string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].Type == nodeType {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

func fieldDeclared(cfg map[string]any, field string) bool {
	props, ok := cfg["properties"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = props[field]
	return ok
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "root"
	}
	return scope
}
