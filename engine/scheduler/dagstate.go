// Package scheduler is the engine's heart: topological evaluation,
// concurrent fan-out bounded per node category, dependency resolution by
// node title, partial-run orchestration, pause/resume, subworkflow
// expansion, and status aggregation. It runs as a Temporal workflow so
// that task status transitions, pauses, and resumes are durable across
// process restarts.
package scheduler

import (
	"github.com/pyspur-dev/workflow-engine/engine/workflow"
)

// edgeState is the resolution of one incoming link at a point in time.
type edgeState int

const (
	edgePending edgeState = iota
	edgeResolved
	edgeAbsent
)

// dagState tracks, for a single scope (root or one subworkflow instance),
// the resolution of every node's incoming edges and the values flowing on
// them. A node becomes ready the moment every required incoming edge
// resolves non-absent; it is marked skipped the moment any required edge
// resolves absent, without waiting on unrelated siblings.
type dagState struct {
	def          *workflow.Definition
	edgeStates   map[string]map[string]edgeState // targetNodeID -> linkKey -> state
	edgeValues   map[string]map[string]any        // targetNodeID -> handle -> value
	nodeStatus   map[string]nodeRunStatus
}

type nodeRunStatus int

const (
	nodeWaiting nodeRunStatus = iota
	nodeReady
	nodeRunning
	nodeDone
	nodeSkipped
	nodeFailed
)

func newDAGState(def *workflow.Definition) *dagState {
	s := &dagState{
		def:        def,
		edgeStates: make(map[string]map[string]edgeState),
		edgeValues: make(map[string]map[string]any),
		nodeStatus: make(map[string]nodeRunStatus),
	}
	for _, n := range def.Nodes {
		s.nodeStatus[n.ID] = nodeWaiting
		if len(def.IncomingLinks(n.ID)) == 0 {
			s.nodeStatus[n.ID] = nodeReady
		}
	}
	return s
}

// Resolve records the outcome of one completed upstream node and returns
// the set of downstream node IDs that became ready or skipped as a
// result.
func (s *dagState) Resolve(nodeID string, outputs map[string]any, routeSelected *string) (ready, skipped []string) {
	for _, l := range s.def.OutgoingLinks(nodeID) {
		target := l.TargetID
		handle := linkHandle(s.def, l)
		absent := false
		if routeSelected != nil && l.SourceHandle != nil && *l.SourceHandle != *routeSelected {
			absent = true
		}

		if s.edgeStates[target] == nil {
			s.edgeStates[target] = make(map[string]edgeState)
			s.edgeValues[target] = make(map[string]any)
		}
		key := nodeID + "->" + target
		if absent {
			s.edgeStates[target][key] = edgeAbsent
		} else {
			s.edgeStates[target][key] = edgeResolved
			s.edgeValues[target][handle] = outputs[sourceHandleField(l)]
		}
	}

	for _, l := range s.def.OutgoingLinks(nodeID) {
		target := l.TargetID
		if s.nodeStatus[target] != nodeWaiting {
			continue
		}
		if s.allIncomingSettled(target) {
			if s.anyAbsent(target) {
				s.nodeStatus[target] = nodeSkipped
				skipped = append(skipped, target)
			} else {
				s.nodeStatus[target] = nodeReady
				ready = append(ready, target)
			}
		}
	}
	return ready, skipped
}

func (s *dagState) allIncomingSettled(nodeID string) bool {
	for _, l := range s.def.IncomingLinks(nodeID) {
		key := l.SourceID + "->" + nodeID
		if s.edgeStates[nodeID][key] == edgePending {
			return false
		}
	}
	return true
}

func (s *dagState) anyAbsent(nodeID string) bool {
	for _, l := range s.def.IncomingLinks(nodeID) {
		key := l.SourceID + "->" + nodeID
		if s.edgeStates[nodeID][key] == edgeAbsent {
			return true
		}
	}
	return false
}

// Inputs returns the assembled input map for a node, keyed by each
// incoming edge's target handle (or the upstream node's title).
func (s *dagState) Inputs(nodeID string) map[string]any {
	if s.edgeValues[nodeID] == nil {
		return map[string]any{}
	}
	return s.edgeValues[nodeID]
}

// ReadyNodes returns every node ID currently in the ready state (includes
// the scope's roots at construction time).
func (s *dagState) ReadyNodes() []string {
	var out []string
	for id, st := range s.nodeStatus {
		if st == nodeReady {
			out = append(out, id)
		}
	}
	return out
}

func (s *dagState) MarkRunning(nodeID string) { s.nodeStatus[nodeID] = nodeRunning }
func (s *dagState) MarkDone(nodeID string)    { s.nodeStatus[nodeID] = nodeDone }
func (s *dagState) MarkFailed(nodeID string)  { s.nodeStatus[nodeID] = nodeFailed }

// AllTerminal reports whether every node in the scope has reached a
// terminal run status (done, skipped, or failed).
func (s *dagState) AllTerminal() bool {
	for _, st := range s.nodeStatus {
		if st != nodeDone && st != nodeSkipped && st != nodeFailed {
			return false
		}
	}
	return true
}

func linkHandle(def *workflow.Definition, l workflow.Link) string {
	if l.TargetHandle != nil {
		return *l.TargetHandle
	}
	if n, ok := def.NodeByID(l.SourceID); ok {
		return n.Title
	}
	return l.SourceID
}

func sourceHandleField(l workflow.Link) string {
	if l.SourceHandle != nil {
		return *l.SourceHandle
	}
	return "value"
}
