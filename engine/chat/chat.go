// Package chat implements the Chat Session Adapter: a thin conversational
// wrapper that turns each user message into a workflow run and appends the
// resulting assistant message to a persisted session transcript.
package chat

import (
	"time"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// Role distinguishes who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Session is a named conversation against one workflow.
type Session struct {
	ID         core.ID   `json:"id"          yaml:"id"`
	WorkflowID core.ID   `json:"workflow_id" yaml:"workflow_id"`
	Title      string    `json:"title"       yaml:"title"`
	CreatedAt  time.Time `json:"created_at"  yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  yaml:"updated_at"`
}

// NewSession opens a session against a workflow.
func NewSession(workflowID core.ID, title string) *Session {
	now := time.Now()
	return &Session{
		ID:         core.MustNewID(),
		WorkflowID: workflowID,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Message is one turn in a Session's transcript. RunID is set on
// assistant messages, recording which run produced them.
type Message struct {
	ID        core.ID   `json:"id"               yaml:"id"`
	SessionID core.ID   `json:"session_id"       yaml:"session_id"`
	RunID     *core.ID  `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Role      Role      `json:"role"             yaml:"role"`
	Content   string    `json:"content"          yaml:"content"`
	CreatedAt time.Time `json:"created_at"       yaml:"created_at"`
}

// NewMessage appends a turn to a session.
func NewMessage(sessionID core.ID, role Role, content string) *Message {
	return &Message{
		ID:        core.MustNewID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
