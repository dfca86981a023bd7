package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/pyspur-dev/workflow-engine/engine/chat"
	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/store"
)

const sessionColumnsSQL = "id, workflow_id, title, created_at, updated_at"

type sessionRow struct {
	ID         core.ID   `db:"id"`
	WorkflowID core.ID   `db:"workflow_id"`
	Title      string    `db:"title"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *sessionRow) toSession() *chat.Session {
	return &chat.Session{
		ID:         r.ID,
		WorkflowID: r.WorkflowID,
		Title:      r.Title,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

const messageColumnsSQL = "id, session_id, run_id, role, content, created_at"

type messageRow struct {
	ID        core.ID   `db:"id"`
	SessionID core.ID   `db:"session_id"`
	RunID     *core.ID  `db:"run_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *messageRow) toMessage() *chat.Message {
	return &chat.Message{
		ID:        r.ID,
		SessionID: r.SessionID,
		RunID:     r.RunID,
		Role:      chat.Role(r.Role),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

// ChatRepo implements chat.Repository against a pgx-compatible pool.
type ChatRepo struct {
	db DB
}

func NewChatRepo(db DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) CreateSession(ctx context.Context, s *chat.Session) error {
	query := `
		INSERT INTO sessions (id, workflow_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, s.ID, s.WorkflowID, s.Title, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (r *ChatRepo) GetSession(ctx context.Context, id core.ID) (*chat.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumnsSQL)
	var row sessionRow
	if err := pgxscan.Get(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return row.toSession(), nil
}

func (r *ChatRepo) ListSessions(ctx context.Context, workflowID core.ID) ([]*chat.Session, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM sessions WHERE workflow_id = $1 ORDER BY created_at DESC",
		sessionColumnsSQL,
	)
	var rows []sessionRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, workflowID); err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	out := make([]*chat.Session, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toSession())
	}
	return out, nil
}

func (r *ChatRepo) TouchSession(ctx context.Context, id core.ID) error {
	tag, err := r.db.Exec(ctx, "UPDATE sessions SET updated_at = $1 WHERE id = $2", time.Now(), id)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ChatRepo) AppendMessage(ctx context.Context, m *chat.Message) error {
	query := `
		INSERT INTO messages (id, session_id, run_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, m.ID, m.SessionID, m.RunID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

func (r *ChatRepo) ListMessages(ctx context.Context, sessionID core.ID) ([]*chat.Message, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM messages WHERE session_id = $1 ORDER BY created_at ASC",
		messageColumnsSQL,
	)
	var rows []messageRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("scanning messages: %w", err)
	}
	out := make([]*chat.Message, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toMessage())
	}
	return out, nil
}
