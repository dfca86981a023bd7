package chat

import (
	"context"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// Repository persists Sessions and their Message transcripts.
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id core.ID) (*Session, error)
	ListSessions(ctx context.Context, workflowID core.ID) ([]*Session, error)
	TouchSession(ctx context.Context, id core.ID) error

	AppendMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, sessionID core.ID) ([]*Message, error)
}
