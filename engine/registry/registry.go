// Package registry discovers node types by category and exposes each
// type's declared schemas and visual metadata, without importing any node
// type's execution internals.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pyspur-dev/workflow-engine/engine/schema"
)

// Category groups node types for discovery/filtering (e.g. by an editor).
type Category string

const (
	CategoryInput       Category = "input"
	CategoryOutput      Category = "output"
	CategoryPrimitive   Category = "primitive"
	CategoryLLM         Category = "llm"
	CategoryLogic       Category = "logic"
	CategoryLoop        Category = "loop"
	CategoryAgent       Category = "agent"
	CategoryIntegration Category = "integration"
	CategoryRAG         Category = "rag"
)

// VisualMetadata is cosmetic information an editor uses to render a node
// type; the engine itself never inspects it.
type VisualMetadata struct {
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Descriptor is everything the registry knows about a node type, short of
// its actual Execute logic (that lives behind engine/node.Executor).
type Descriptor struct {
	Type           string
	Category       Category
	ConfigSchema   schema.Schema
	InputSchema    schema.Schema
	OutputSchema   schema.Schema
	HasFixedOutput bool
	Visual         VisualMetadata
}

// Registry is a concurrency-safe catalog of node type descriptors, keyed
// by Descriptor.Type.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Descriptor
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{types: make(map[string]Descriptor)}
}

// Register adds or replaces a node type's descriptor.
func (r *Registry) Register(d Descriptor) error {
	if d.Type == "" {
		return fmt.Errorf("registry: descriptor must have a non-empty Type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[d.Type] = d
	return nil
}

// Get returns the descriptor for a node type, resolving it the same way
// Node.Type does when the validator/scheduler need schema information.
func (r *Registry) Get(nodeType string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[nodeType]
	if !ok {
		return Descriptor{}, fmt.Errorf("registry: unknown node type %q", nodeType)
	}
	return d, nil
}

// List returns every registered descriptor, optionally filtered to one
// category, sorted by Type for stable output.
func (r *Registry) List(category Category) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.types))
	for _, d := range r.types {
		if category != "" && d.Category != category {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Categories returns the distinct categories with at least one registered
// type, sorted.
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[Category]bool)
	for _, d := range r.types {
		seen[d.Category] = true
	}
	out := make([]Category, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
