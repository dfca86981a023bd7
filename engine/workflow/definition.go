// Package workflow holds the DAG-shaped definition of a spur: nodes, links,
// and the validator that turns a definition into something the scheduler
// can safely execute.
package workflow

import (
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// SpurType is the kind of workflow a Definition represents.
type SpurType string

const (
	SpurWorkflow SpurType = "workflow"
	SpurChatbot  SpurType = "chatbot"
	SpurAgent    SpurType = "agent"
)

// Coordinates places a node on the visual canvas; purely cosmetic.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one unit of computation in the DAG. Title must be a valid
// identifier and unique within its scope (root or a subworkflow).
type Node struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Type        string       `json:"node_type"`
	Config      schema.Schema `json:"config"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	ParentID    *string      `json:"parent_id,omitempty"`
	Subworkflow *Definition  `json:"subworkflow,omitempty"`
}

// Link connects a source node's handle to a target node's handle. For
// non-router sources, handles default to the source node's title and the
// named target field; router sources select a declared route via
// SourceHandle.
type Link struct {
	SourceID     string  `json:"source_id"`
	TargetID     string  `json:"target_id"`
	SourceHandle *string `json:"source_handle,omitempty"`
	TargetHandle *string `json:"target_handle,omitempty"`
}

// TestInput is a saved set of inputs a caller can replay against the
// workflow without constructing a full Run.
type TestInput struct {
	ID     int            `json:"id"`
	Values map[string]any `json:"-"`
}

// Definition is the full, immutable shape of a spur version. Two
// definitions with the same canonical JSON hash to the same content
// address, so version deduplication is exact.
type Definition struct {
	Nodes      []Node      `json:"nodes"`
	Links      []Link      `json:"links"`
	TestInputs []TestInput `json:"test_inputs,omitempty"`
	SpurType   SpurType    `json:"spur_type"`
}

// ContentHash returns the canonical-JSON SHA-256 digest used to dedupe
// WorkflowVersions.
func (d *Definition) ContentHash() string {
	return core.ETagFromAny(d.asHashable())
}

func (d *Definition) asHashable() map[string]any {
	nodes := make([]any, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = map[string]any{
			"id":       n.ID,
			"title":    n.Title,
			"type":     n.Type,
			"config":   map[string]any(n.Config),
			"parentId": n.ParentID,
		}
	}
	links := make([]any, len(d.Links))
	for i, l := range d.Links {
		links[i] = map[string]any{
			"sourceId":     l.SourceID,
			"targetId":     l.TargetID,
			"sourceHandle": l.SourceHandle,
			"targetHandle": l.TargetHandle,
		}
	}
	return map[string]any{
		"nodes":    nodes,
		"links":    links,
		"spurType": string(d.SpurType),
	}
}

// NodeByID returns the node with the given ID in this definition's own
// scope (not recursing into subworkflows).
func (d *Definition) NodeByID(id string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// NodeByTitle returns the node with the given title in this definition's
// own scope.
func (d *Definition) NodeByTitle(title string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].Title == title {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// OutgoingLinks returns every link whose SourceID matches nodeID.
func (d *Definition) OutgoingLinks(nodeID string) []Link {
	var out []Link
	for _, l := range d.Links {
		if l.SourceID == nodeID {
			out = append(out, l)
		}
	}
	return out
}

// IncomingLinks returns every link whose TargetID matches nodeID.
func (d *Definition) IncomingLinks(nodeID string) []Link {
	var in []Link
	for _, l := range d.Links {
		if l.TargetID == nodeID {
			in = append(in, l)
		}
	}
	return in
}
