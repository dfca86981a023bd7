package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/pyspur-dev/workflow-engine/engine/core"
	"github.com/pyspur-dev/workflow-engine/engine/runctl"
)

// Adapter turns chat messages into workflow runs, appending both sides of
// the exchange to the session transcript.
type Adapter struct {
	Repo       Repository
	Controller *runctl.Controller
	// ReplyTimeout bounds how long Send waits for the run to finish before
	// giving up; zero means wait indefinitely.
	ReplyTimeout time.Duration
}

// Send appends the user's message, starts a run seeded with the message
// and prior transcript, waits for it to finish, and appends the
// assistant's reply extracted from the run's Output node.
func (a *Adapter) Send(ctx context.Context, sessionID core.ID, message string) (*Message, error) {
	session, err := a.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("chat: get session: %w", err)
	}
	history, err := a.Repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("chat: list messages: %w", err)
	}

	userMsg := NewMessage(sessionID, RoleUser, message)
	if err := a.Repo.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("chat: append user message: %w", err)
	}

	r, err := a.Controller.StartRun(ctx, session.WorkflowID, core.Input{
		"input_node": map[string]any{
			"user_message":    message,
			"session_id":      string(sessionID),
			"message_history": historyAsInput(history),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat: start run: %w", err)
	}

	result, err := a.Controller.AwaitResult(ctx, r.ID, a.ReplyTimeout)
	if err != nil {
		return nil, fmt.Errorf("chat: await run: %w", err)
	}

	reply, _ := result.Outputs["assistant_message"].(string)
	if reply == "" {
		reply, _ = result.Outputs["response"].(string)
	}

	assistantMsg := NewMessage(sessionID, RoleAssistant, reply)
	assistantMsg.RunID = &r.ID
	if err := a.Repo.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("chat: append assistant message: %w", err)
	}
	if err := a.Repo.TouchSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("chat: touch session: %w", err)
	}
	return assistantMsg, nil
}

func historyAsInput(messages []*Message) []map[string]any {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		out = append(out, map[string]any{"role": string(m.Role), "content": m.Content})
	}
	return out
}
