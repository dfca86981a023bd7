package scheduler

import (
	"runtime"

	"github.com/pyspur-dev/workflow-engine/engine/registry"
)

// CategoryLimits caps how many nodes of each category may run
// concurrently within a single run. LLM and HTTP-bound categories get a
// higher cap than compute-bound ones since they spend most of their time
// waiting on I/O, not holding a worker slot.
type CategoryLimits map[registry.Category]int

// DefaultCategoryLimits mirrors spec.md §5's default table: LLM=8,
// integration (HTTP/tool calls)=32, everything else defaults to the host's
// CPU count.
func DefaultCategoryLimits() CategoryLimits {
	compute := runtime.NumCPU()
	return CategoryLimits{
		registry.CategoryLLM:         8,
		registry.CategoryIntegration: 32,
		registry.CategoryRAG:        8,
		registry.CategoryPrimitive:  compute,
		registry.CategoryLogic:      compute,
		registry.CategoryLoop:       compute,
		registry.CategoryAgent:      8,
		registry.CategoryInput:      compute,
		registry.CategoryOutput:     compute,
	}
}

func (c CategoryLimits) limitFor(cat registry.Category) int {
	if n, ok := c[cat]; ok && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
