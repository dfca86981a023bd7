package builtin

import (
	"github.com/pyspur-dev/workflow-engine/engine/node"
	"github.com/pyspur-dev/workflow-engine/engine/registry"
)

// Descriptors returns the registry entries for every node type this
// package implements, for the scheduler to register at startup.
func Descriptors() []registry.Descriptor {
	return []registry.Descriptor{
		{Type: "InputNode", Category: registry.CategoryInput, HasFixedOutput: false,
			Visual: registry.VisualMetadata{DisplayName: "Input"}},
		{Type: "OutputNode", Category: registry.CategoryOutput, HasFixedOutput: false,
			Visual: registry.VisualMetadata{DisplayName: "Output"}},
		{Type: "RouterNode", Category: registry.CategoryLogic, HasFixedOutput: true,
			Visual: registry.VisualMetadata{DisplayName: "Router"}},
		{Type: "ForLoop", Category: registry.CategoryLoop, HasFixedOutput: true,
			Visual: registry.VisualMetadata{DisplayName: "For Loop"}},
		{Type: "AgentNode", Category: registry.CategoryAgent, HasFixedOutput: true,
			Visual: registry.VisualMetadata{DisplayName: "Agent"}},
		{Type: "HumanInterventionNode", Category: registry.CategoryLogic, HasFixedOutput: false,
			Visual: registry.VisualMetadata{DisplayName: "Human Intervention"}},
		{Type: "PythonFuncNode", Category: registry.CategoryPrimitive, HasFixedOutput: false,
			Visual: registry.VisualMetadata{DisplayName: "Python Function"}},
		{Type: "StaticValueNode", Category: registry.CategoryPrimitive, HasFixedOutput: true,
			Visual: registry.VisualMetadata{DisplayName: "Static Value"}},
	}
}

// Executors builds the node.Executor instances for every type this package
// implements, keyed the same way as Descriptors, for scheduler.RegisterExecutors.
// The Agent node is the only one with an external dependency, so its model
// client is supplied by the caller rather than constructed here.
func Executors(agentClient ModelClient) map[string]node.Executor {
	return map[string]node.Executor{
		"InputNode":             Input{},
		"OutputNode":            Output{},
		"RouterNode":            Router{},
		"ForLoop":               ForLoop{},
		"AgentNode":             Agent{Client: agentClient},
		"HumanInterventionNode": HumanIntervention{},
		"PythonFuncNode":        PythonFunc{},
		"StaticValueNode":       StaticValue{},
	}
}
