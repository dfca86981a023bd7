package task

import (
	"context"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// Filter narrows a task listing. Zero-valued fields are not applied.
type Filter struct {
	RunID        core.ID
	NodeID       string
	ParentTaskID *core.ID
	Status       core.StatusType
}

// ProgressInfo summarizes a run's task statuses for status reporting.
type ProgressInfo struct {
	StatusCounts   map[core.StatusType]int
	TotalChildren  int
	SuccessCount   int
	FailedCount    int
	CanceledCount  int
	RunningCount   int
	PendingCount   int
	TerminalCount  int
	CompletionRate float64
	FailureRate    float64
}

// NewProgressInfo aggregates a ProgressInfo from a set of tasks.
func NewProgressInfo(tasks []*Task) *ProgressInfo {
	p := &ProgressInfo{StatusCounts: make(map[core.StatusType]int)}
	for _, t := range tasks {
		p.StatusCounts[t.Status]++
		p.TotalChildren++
		switch t.Status {
		case core.StatusSuccess:
			p.SuccessCount++
		case core.StatusFailed:
			p.FailedCount++
		case core.StatusCanceled:
			p.CanceledCount++
		case core.StatusRunning:
			p.RunningCount++
		case core.StatusPending:
			p.PendingCount++
		}
		if t.Status.IsTerminal() {
			p.TerminalCount++
		}
	}
	if p.TotalChildren > 0 {
		p.CompletionRate = float64(p.TerminalCount) / float64(p.TotalChildren)
		p.FailureRate = float64(p.FailedCount) / float64(p.TotalChildren)
	}
	return p
}

// Repository persists and queries Tasks. Implementations (postgres,
// embedded filestore) must make Upsert idempotent on (RunID, NodeID,
// ParentTaskID) so scheduler retries never create duplicate rows.
type Repository interface {
	Upsert(ctx context.Context, t *Task) error
	Get(ctx context.Context, id core.ID) (*Task, error)
	GetByScope(ctx context.Context, runID core.ID, nodeID string, parentTaskID *core.ID) (*Task, error)
	List(ctx context.Context, filter Filter) ([]*Task, error)
	ListChildren(ctx context.Context, runID core.ID, parentTaskID *core.ID) ([]*Task, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}
