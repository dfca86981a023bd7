package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/run"
	"github.com/pyspur-dev/workflow-engine/engine/store"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

const runColumnsSQL = "id, workflow_id, version_id, status, run_type, initial_inputs, " +
	"outputs, parent_run_id, start_time, end_time"

type runRow struct {
	ID            core.ID  `db:"id"`
	WorkflowID    core.ID  `db:"workflow_id"`
	VersionID     core.ID  `db:"version_id"`
	Status        string   `db:"status"`
	RunType       string   `db:"run_type"`
	InitialInputs []byte   `db:"initial_inputs"`
	Outputs       []byte   `db:"outputs"`
	ParentRunID   *core.ID `db:"parent_run_id"`
	StartTime     time.Time  `db:"start_time"`
	EndTime       *time.Time `db:"end_time"`
}

func (r *runRow) toRun() (*run.Run, error) {
	out := &run.Run{
		ID:          r.ID,
		WorkflowID:  r.WorkflowID,
		VersionID:   r.VersionID,
		Status:      core.StatusType(r.Status),
		RunType:     run.Type(r.RunType),
		ParentRunID: r.ParentRunID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
	}
	if err := FromJSONB(r.InitialInputs, &out.InitialInputs); err != nil {
		return nil, fmt.Errorf("unmarshaling initial inputs: %w", err)
	}
	if err := FromJSONB(r.Outputs, &out.Outputs); err != nil {
		return nil, fmt.Errorf("unmarshaling outputs: %w", err)
	}
	return out, nil
}

// RunRepo implements run.Repository against a pgx-compatible pool.
type RunRepo struct {
	db DB
}

func NewRunRepo(db DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Create(ctx context.Context, run *run.Run) error {
	inputs, err := ToJSONB(run.InitialInputs)
	if err != nil {
		return fmt.Errorf("marshaling initial inputs: %w", err)
	}
	outputs, err := ToJSONB(run.Outputs)
	if err != nil {
		return fmt.Errorf("marshaling outputs: %w", err)
	}
	query := `
		INSERT INTO runs (
			id, workflow_id, version_id, status, run_type, initial_inputs,
			outputs, parent_run_id, start_time, end_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Exec(ctx, query,
		run.ID, run.WorkflowID, run.VersionID, run.Status, run.RunType, inputs,
		outputs, run.ParentRunID, run.StartTime, run.EndTime,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

func (r *RunRepo) Update(ctx context.Context, run *run.Run) error {
	outputs, err := ToJSONB(run.Outputs)
	if err != nil {
		return fmt.Errorf("marshaling outputs: %w", err)
	}
	query := `
		UPDATE runs SET status = $2, outputs = $3, end_time = $4
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, run.ID, run.Status, outputs, run.EndTime)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, id core.ID) (*run.Run, error) {
	query := fmt.Sprintf("SELECT %s FROM runs WHERE id = $1", runColumnsSQL)
	var row runRow
	if err := pgxscan.Get(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	return row.toRun()
}

func (r *RunRepo) ListByWorkflow(ctx context.Context, workflowID core.ID) ([]*run.Run, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM runs WHERE workflow_id = $1 ORDER BY start_time DESC",
		runColumnsSQL,
	)
	var rows []runRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, workflowID); err != nil {
		return nil, fmt.Errorf("scanning runs: %w", err)
	}
	out := make([]*run.Run, 0, len(rows))
	for i := range rows {
		rn, err := rows[i].toRun()
		if err != nil {
			return nil, fmt.Errorf("converting run: %w", err)
		}
		out = append(out, rn)
	}
	return out, nil
}

const pauseColumnsSQL = "id, run_id, node_id, pause_time, pause_message, resume_time, " +
	"resume_action, resume_user_id, input_data, comments"

type pauseRow struct {
	ID           core.ID    `db:"id"`
	RunID        core.ID    `db:"run_id"`
	NodeID       string     `db:"node_id"`
	PauseTime    time.Time  `db:"pause_time"`
	PauseMessage string     `db:"pause_message"`
	ResumeTime   *time.Time `db:"resume_time"`
	ResumeAction string     `db:"resume_action"`
	ResumeUserID string     `db:"resume_user_id"`
	InputData    []byte     `db:"input_data"`
	Comments     string     `db:"comments"`
}

func (p *pauseRow) toPauseEvent() (*run.PauseEvent, error) {
	out := &run.PauseEvent{
		ID:           p.ID,
		RunID:        p.RunID,
		NodeID:       p.NodeID,
		PauseTime:    p.PauseTime,
		PauseMessage: p.PauseMessage,
		ResumeTime:   p.ResumeTime,
		ResumeAction: run.ResumeAction(p.ResumeAction),
		ResumeUserID: p.ResumeUserID,
		Comments:     p.Comments,
	}
	if err := FromJSONB(p.InputData, &out.InputData); err != nil {
		return nil, fmt.Errorf("unmarshaling input data: %w", err)
	}
	return out, nil
}

// PauseRepo implements run.PauseRepository against a pgx-compatible pool.
type PauseRepo struct {
	db DB
}

func NewPauseRepo(db DB) *PauseRepo {
	return &PauseRepo{db: db}
}

func (p *PauseRepo) Create(ctx context.Context, ev *run.PauseEvent) error {
	input, err := ToJSONB(ev.InputData)
	if err != nil {
		return fmt.Errorf("marshaling input data: %w", err)
	}
	query := `
		INSERT INTO pause_events (id, run_id, node_id, pause_time, pause_message, input_data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = p.db.Exec(ctx, query, ev.ID, ev.RunID, ev.NodeID, ev.PauseTime, ev.PauseMessage, input)
	if err != nil {
		return fmt.Errorf("inserting pause event: %w", err)
	}
	return nil
}

func (p *PauseRepo) Update(ctx context.Context, ev *run.PauseEvent) error {
	input, err := ToJSONB(ev.InputData)
	if err != nil {
		return fmt.Errorf("marshaling input data: %w", err)
	}
	query := `
		UPDATE pause_events SET
			resume_time = $2, resume_action = $3, resume_user_id = $4,
			input_data = $5, comments = $6
		WHERE id = $1
	`
	tag, err := p.db.Exec(ctx, query, ev.ID, ev.ResumeTime, ev.ResumeAction, ev.ResumeUserID, input, ev.Comments)
	if err != nil {
		return fmt.Errorf("updating pause event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *PauseRepo) GetOpenByRun(ctx context.Context, runID core.ID) (*run.PauseEvent, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM pause_events WHERE run_id = $1 AND resume_time IS NULL ORDER BY pause_time DESC LIMIT 1",
		pauseColumnsSQL,
	)
	var row pauseRow
	if err := pgxscan.Get(ctx, p.db, &row, query, runID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning pause event: %w", err)
	}
	return row.toPauseEvent()
}

func (p *PauseRepo) ListByRun(ctx context.Context, runID core.ID) ([]*run.PauseEvent, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM pause_events WHERE run_id = $1 ORDER BY pause_time ASC",
		pauseColumnsSQL,
	)
	var rows []pauseRow
	if err := pgxscan.Select(ctx, p.db, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("scanning pause events: %w", err)
	}
	out := make([]*run.PauseEvent, 0, len(rows))
	for i := range rows {
		ev, err := rows[i].toPauseEvent()
		if err != nil {
			return nil, fmt.Errorf("converting pause event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}
