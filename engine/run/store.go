package run

import (
	"context"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// Repository persists and queries Runs.
type Repository interface {
	Create(ctx context.Context, r *Run) error
	Update(ctx context.Context, r *Run) error
	Get(ctx context.Context, id core.ID) (*Run, error)
	ListByWorkflow(ctx context.Context, workflowID core.ID) ([]*Run, error)
}

// PauseRepository persists and queries PauseEvents.
type PauseRepository interface {
	Create(ctx context.Context, p *PauseEvent) error
	Update(ctx context.Context, p *PauseEvent) error
	GetOpenByRun(ctx context.Context, runID core.ID) (*PauseEvent, error)
	ListByRun(ctx context.Context, runID core.ID) ([]*PauseEvent, error)
}
