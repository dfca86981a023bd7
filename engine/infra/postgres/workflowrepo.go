package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/store"
	wf "github.com/pyspur-dev/workflow-engine/engine/workflow"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

const workflowColumnsSQL = "id, name, description, current_version"

type workflowRow struct {
	ID             core.ID `db:"id"`
	Name           string  `db:"name"`
	Description    string  `db:"description"`
	CurrentVersion core.ID `db:"current_version"`
}

const versionColumnsSQL = "id, workflow_id, content_hash, definition, created_at"

type versionRow struct {
	ID          core.ID   `db:"id"`
	WorkflowID  core.ID   `db:"workflow_id"`
	ContentHash string    `db:"content_hash"`
	Definition  []byte    `db:"definition"`
	CreatedAt   time.Time `db:"created_at"`
}

func (v *versionRow) toVersion() (*wf.Version, error) {
	var def wf.Definition
	if err := json.Unmarshal(v.Definition, &def); err != nil {
		return nil, fmt.Errorf("unmarshaling definition: %w", err)
	}
	return &wf.Version{
		ID:          v.ID,
		WorkflowID:  v.WorkflowID,
		ContentHash: v.ContentHash,
		Definition:  &def,
		CreatedAt:   v.CreatedAt,
	}, nil
}

// WorkflowRepo implements workflow.Repository against a pgx-compatible pool.
type WorkflowRepo struct {
	db DB
}

func NewWorkflowRepo(db DB) *WorkflowRepo {
	return &WorkflowRepo{db: db}
}

func (r *WorkflowRepo) Create(ctx context.Context, w *wf.Workflow) error {
	query := `
		INSERT INTO workflows (id, name, description, current_version)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, w.ID, w.Name, w.Description, w.CurrentVersion)
	if err != nil {
		return fmt.Errorf("inserting workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepo) Get(ctx context.Context, id core.ID) (*wf.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE id = $1", workflowColumnsSQL)
	return r.scanWorkflow(ctx, query, id)
}

func (r *WorkflowRepo) GetByName(ctx context.Context, name string) (*wf.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE name = $1", workflowColumnsSQL)
	return r.scanWorkflow(ctx, query, name)
}

func (r *WorkflowRepo) scanWorkflow(ctx context.Context, query string, arg any) (*wf.Workflow, error) {
	var row workflowRow
	if err := pgxscan.Get(ctx, r.db, &row, query, arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning workflow: %w", err)
	}
	versions, err := r.ListVersions(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]core.ID, 0, len(versions))
	for _, v := range versions {
		ids = append(ids, v.ID)
	}
	return &wf.Workflow{
		ID:             row.ID,
		Name:           row.Name,
		Description:    row.Description,
		CurrentVersion: row.CurrentVersion,
		Versions:       ids,
	}, nil
}

func (r *WorkflowRepo) List(ctx context.Context) ([]*wf.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows ORDER BY name ASC", workflowColumnsSQL)
	var rows []workflowRow
	if err := pgxscan.Select(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("scanning workflows: %w", err)
	}
	out := make([]*wf.Workflow, 0, len(rows))
	for _, row := range rows {
		versions, err := r.ListVersions(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]core.ID, 0, len(versions))
		for _, v := range versions {
			ids = append(ids, v.ID)
		}
		out = append(out, &wf.Workflow{
			ID:             row.ID,
			Name:           row.Name,
			Description:    row.Description,
			CurrentVersion: row.CurrentVersion,
			Versions:       ids,
		})
	}
	return out, nil
}

func (r *WorkflowRepo) SetCurrentVersion(ctx context.Context, workflowID, versionID core.ID) error {
	tag, err := r.db.Exec(ctx, "UPDATE workflows SET current_version = $2 WHERE id = $1", workflowID, versionID)
	if err != nil {
		return fmt.Errorf("updating current version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *WorkflowRepo) SaveVersion(ctx context.Context, v *wf.Version) (*wf.Version, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM workflow_versions WHERE workflow_id = $1 AND content_hash = $2",
		versionColumnsSQL,
	)
	var existing versionRow
	err := pgxscan.Get(ctx, r.db, &existing, query, v.WorkflowID, v.ContentHash)
	if err == nil {
		return existing.toVersion()
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("checking existing version: %w", err)
	}
	def, err := json.Marshal(v.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshaling definition: %w", err)
	}
	insert := `
		INSERT INTO workflow_versions (id, workflow_id, content_hash, definition, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err = r.db.Exec(ctx, insert, v.ID, v.WorkflowID, v.ContentHash, def, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting version: %w", err)
	}
	return v, nil
}

func (r *WorkflowRepo) GetVersion(ctx context.Context, id core.ID) (*wf.Version, error) {
	query := fmt.Sprintf("SELECT %s FROM workflow_versions WHERE id = $1", versionColumnsSQL)
	var row versionRow
	if err := pgxscan.Get(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning version: %w", err)
	}
	return row.toVersion()
}

func (r *WorkflowRepo) ListVersions(ctx context.Context, workflowID core.ID) ([]*wf.Version, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM workflow_versions WHERE workflow_id = $1 ORDER BY created_at ASC",
		versionColumnsSQL,
	)
	var rows []versionRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, workflowID); err != nil {
		return nil, fmt.Errorf("scanning versions: %w", err)
	}
	out := make([]*wf.Version, 0, len(rows))
	for i := range rows {
		v, err := rows[i].toVersion()
		if err != nil {
			return nil, fmt.Errorf("converting version: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
