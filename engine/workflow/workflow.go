package workflow

import (
	"time"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// Version is one immutable, content-addressed snapshot of a Definition.
// Versions are append-only: a new save that hashes to an existing
// Version's ContentHash reuses it instead of inserting a duplicate row.
type Version struct {
	ID          core.ID     `json:"id"           yaml:"id"`
	WorkflowID  core.ID     `json:"workflow_id"  yaml:"workflow_id"`
	ContentHash string      `json:"content_hash" yaml:"content_hash"`
	Definition  *Definition `json:"definition"   yaml:"definition"`
	CreatedAt   time.Time   `json:"created_at"   yaml:"created_at"`
}

// Workflow is the durable logical identity a caller names and iterates on.
// CurrentVersion points at the version new Runs start from; Versions is the
// append-only history, shared weakly with any Run that references one.
type Workflow struct {
	ID             core.ID  `json:"id"              yaml:"id"`
	Name           string   `json:"name"            yaml:"name"`
	Description    string   `json:"description"     yaml:"description"`
	CurrentVersion core.ID  `json:"current_version" yaml:"current_version"`
	Versions       []core.ID `json:"versions"        yaml:"versions"`
}

// NewVersion builds a Version from a definition, computing its content
// hash. Callers performing a save should look up an existing Version with
// the same ContentHash before inserting this one, to keep versions deduped.
func NewVersion(workflowID core.ID, def *Definition) *Version {
	return &Version{
		ID:          core.MustNewID(),
		WorkflowID:  workflowID,
		ContentHash: def.ContentHash(),
		Definition:  def,
	}
}
