package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/store"
	"github.com/pyspur-dev/workflow-engine/engine/task"
	"github.com/pyspur-dev/workflow-engine/pkg/logger"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var taskColumns = []string{
	"id",
	"run_id",
	"node_id",
	"parent_task_id",
	"status",
	"inputs",
	"outputs",
	"error",
	"start_time",
	"end_time",
	"subworkflow",
	"subworkflow_output",
}

const taskColumnsSQL = "id, run_id, node_id, parent_task_id, status, inputs, outputs, " +
	"error, start_time, end_time, subworkflow, subworkflow_output"

// taskRow is the wire shape scany fills from a tasks row.
type taskRow struct {
	ID                core.ID     `db:"id"`
	RunID             core.ID     `db:"run_id"`
	NodeID            string      `db:"node_id"`
	ParentTaskID      *core.ID    `db:"parent_task_id"`
	Status            string      `db:"status"`
	Inputs            []byte      `db:"inputs"`
	Outputs           []byte      `db:"outputs"`
	Error             []byte      `db:"error"`
	StartTime         *time.Time  `db:"start_time"`
	EndTime           *time.Time  `db:"end_time"`
	Subworkflow       bool        `db:"subworkflow"`
	SubworkflowOutput []byte      `db:"subworkflow_output"`
}

func (r *taskRow) toTask() (*task.Task, error) {
	t := &task.Task{
		ID:           r.ID,
		RunID:        r.RunID,
		NodeID:       r.NodeID,
		ParentTaskID: r.ParentTaskID,
		Status:       core.StatusType(r.Status),
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Subworkflow:  r.Subworkflow,
	}
	if err := FromJSONB(r.Inputs, &t.Inputs); err != nil {
		return nil, fmt.Errorf("unmarshaling inputs: %w", err)
	}
	if err := FromJSONB(r.Outputs, &t.Outputs); err != nil {
		return nil, fmt.Errorf("unmarshaling outputs: %w", err)
	}
	if err := FromJSONB(r.Error, &t.Error); err != nil {
		return nil, fmt.Errorf("unmarshaling error: %w", err)
	}
	var outputs []core.Output
	if err := FromJSONB(r.SubworkflowOutput, &outputs); err != nil {
		return nil, fmt.Errorf("unmarshaling subworkflow output: %w", err)
	}
	t.SubworkflowOutput = outputs
	return t, nil
}

// DB is the minimal database interface TaskRepo depends on (pgxpool or pgxmock).
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TaskRepo implements task.Repository against a pgx-compatible pool.
type TaskRepo struct {
	db DB
}

func NewTaskRepo(db DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Upsert(ctx context.Context, t *task.Task) error {
	return r.upsertWith(ctx, r.db, t)
}

func (r *TaskRepo) upsertWith(ctx context.Context, q pgxscan.Querier, t *task.Task) error {
	inputs, err := ToJSONB(t.Inputs)
	if err != nil {
		return fmt.Errorf("marshaling inputs: %w", err)
	}
	outputs, err := ToJSONB(t.Outputs)
	if err != nil {
		return fmt.Errorf("marshaling outputs: %w", err)
	}
	errJSON, err := ToJSONB(t.Error)
	if err != nil {
		return fmt.Errorf("marshaling error: %w", err)
	}
	subOut, err := ToJSONB(t.SubworkflowOutput)
	if err != nil {
		return fmt.Errorf("marshaling subworkflow output: %w", err)
	}
	query := `
		INSERT INTO tasks (
			id, run_id, node_id, parent_task_id, status, inputs, outputs,
			error, start_time, end_time, subworkflow, subworkflow_output
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = $5,
			inputs = $6,
			outputs = $7,
			error = $8,
			start_time = $9,
			end_time = $10,
			subworkflow_output = $12
	`
	_, err = q.Exec(ctx, query,
		t.ID, t.RunID, t.NodeID, t.ParentTaskID, t.Status, inputs, outputs,
		errJSON, t.StartTime, t.EndTime, t.Subworkflow, subOut,
	)
	if err != nil {
		return fmt.Errorf("upserting task: %w", err)
	}
	return nil
}

func (r *TaskRepo) Get(ctx context.Context, id core.ID) (*task.Task, error) {
	return r.getWith(ctx, r.db, "id", id)
}

func (r *TaskRepo) getWith(ctx context.Context, q pgxscan.Querier, col string, val any) (*task.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE %s = $1", taskColumnsSQL, col)
	var row taskRow
	if err := pgxscan.Get(ctx, q, &row, query, val); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return row.toTask()
}

func (r *TaskRepo) GetByScope(
	ctx context.Context,
	runID core.ID,
	nodeID string,
	parentTaskID *core.ID,
) (*task.Task, error) {
	sb := squirrel.Select(taskColumns...).From("tasks").PlaceholderFormat(squirrel.Dollar).
		Where(squirrel.Eq{"run_id": runID, "node_id": nodeID})
	if parentTaskID == nil {
		sb = sb.Where("parent_task_id IS NULL")
	} else {
		sb = sb.Where(squirrel.Eq{"parent_task_id": *parentTaskID})
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var row taskRow
	if err := pgxscan.Get(ctx, r.db, &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return row.toTask()
}

func (r *TaskRepo) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	return r.listWith(ctx, r.db, filter)
}

func (r *TaskRepo) listWith(ctx context.Context, q pgxscan.Querier, filter task.Filter) ([]*task.Task, error) {
	sb := squirrel.Select(taskColumns...).From("tasks").PlaceholderFormat(squirrel.Dollar)
	if !filter.RunID.IsZero() {
		sb = sb.Where(squirrel.Eq{"run_id": filter.RunID})
	}
	if filter.NodeID != "" {
		sb = sb.Where(squirrel.Eq{"node_id": filter.NodeID})
	}
	if filter.ParentTaskID != nil {
		sb = sb.Where(squirrel.Eq{"parent_task_id": *filter.ParentTaskID})
	}
	if filter.Status != "" {
		sb = sb.Where(squirrel.Eq{"status": filter.Status})
	}
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var rows []taskRow
	if err := pgxscan.Select(ctx, q, &rows, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("scanning tasks: %w", err)
	}
	return toTasks(rows)
}

func (r *TaskRepo) ListChildren(ctx context.Context, runID core.ID, parentTaskID *core.ID) ([]*task.Task, error) {
	return r.List(ctx, task.Filter{RunID: runID, ParentTaskID: parentTaskID})
}

// GetTaskTree returns every task in a run, top-level tasks and nested
// loop/subworkflow children alike, in a single recursive query.
func (r *TaskRepo) GetTaskTree(ctx context.Context, runID core.ID) ([]*task.Task, error) {
	var rows []taskRow
	if err := pgxscan.Select(ctx, r.db, &rows, TaskHierarchyCTEQuery, runID); err != nil {
		return nil, fmt.Errorf("scanning task tree: %w", err)
	}
	return toTasks(rows)
}

func toTasks(rows []taskRow) ([]*task.Task, error) {
	out := make([]*task.Task, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toTask()
		if err != nil {
			return nil, fmt.Errorf("converting task: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// WithTransaction runs fn against a tx-scoped task.Repository backed by the
// same underlying pgx.Tx (pgx.Tx satisfies DB directly).
func (r *TaskRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx task.Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	log := logger.FromContext(ctx)
	txRepo := &taskRepoTx{TaskRepo: &TaskRepo{db: tx}}
	var cbErr error
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error("Failed to rollback transaction", "error", rbErr)
			}
			panic(p)
		} else if cbErr != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error("Failed to rollback transaction", "error", rbErr)
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error("Failed to commit transaction", "error", commitErr)
			cbErr = fmt.Errorf("commit transaction: %w", commitErr)
		}
	}()
	cbErr = fn(ctx, txRepo)
	return cbErr
}

// taskRepoTx is a task.Repository bound to an open transaction; WithTransaction
// on it runs fn in the same transaction rather than opening a nested one.
type taskRepoTx struct {
	*TaskRepo
}

func (t *taskRepoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx task.Repository) error) error {
	return fn(ctx, t)
}
