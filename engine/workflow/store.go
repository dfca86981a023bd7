package workflow

import (
	"context"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// Repository persists Workflows and their append-only Version history.
type Repository interface {
	Create(ctx context.Context, w *Workflow) error
	Get(ctx context.Context, id core.ID) (*Workflow, error)
	GetByName(ctx context.Context, name string) (*Workflow, error)
	List(ctx context.Context) ([]*Workflow, error)
	SetCurrentVersion(ctx context.Context, workflowID, versionID core.ID) error

	// SaveVersion inserts v unless a version with the same ContentHash
	// already exists for the workflow, in which case the existing
	// version is returned so history stays deduplicated.
	SaveVersion(ctx context.Context, v *Version) (*Version, error)
	GetVersion(ctx context.Context, id core.ID) (*Version, error)
	ListVersions(ctx context.Context, workflowID core.ID) ([]*Version, error)
}
