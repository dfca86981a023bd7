package run

import (
	"time"

	"github.com/pyspur-dev/workflow-engine/engine/core"
)

// ResumeAction is the human decision closing out a PauseEvent.
type ResumeAction string

const (
	ResumeApprove ResumeAction = "APPROVE"
	ResumeDecline ResumeAction = "DECLINE"
	ResumeOverride ResumeAction = "OVERRIDE"
)

// PauseEvent is appended when a human-intervention node suspends a run,
// and closed out when the run is resumed.
type PauseEvent struct {
	ID           core.ID       `json:"id"                      yaml:"id"`
	RunID        core.ID       `json:"run_id"                  yaml:"run_id"`
	NodeID       string        `json:"node_id"                 yaml:"node_id"`
	PauseTime    time.Time     `json:"pause_time"               yaml:"pause_time"`
	PauseMessage string        `json:"pause_message,omitempty"  yaml:"pause_message,omitempty"`
	ResumeTime   *time.Time    `json:"resume_time,omitempty"    yaml:"resume_time,omitempty"`
	ResumeAction ResumeAction  `json:"resume_action,omitempty"  yaml:"resume_action,omitempty"`
	ResumeUserID string        `json:"resume_user_id,omitempty" yaml:"resume_user_id,omitempty"`
	InputData    core.Input    `json:"input_data,omitempty"     yaml:"input_data,omitempty"`
	Comments     string        `json:"comments,omitempty"       yaml:"comments,omitempty"`
}

// NewPauseEvent opens a pause event for a human-intervention node.
func NewPauseEvent(runID core.ID, nodeID, message string) *PauseEvent {
	return &PauseEvent{
		ID:           core.MustNewID(),
		RunID:        runID,
		NodeID:       nodeID,
		PauseTime:    time.Now(),
		PauseMessage: message,
	}
}

// Resolve closes the pause event with the human's decision.
func (p *PauseEvent) Resolve(action ResumeAction, userID string, inputs core.Input, comments string) {
	now := time.Now()
	p.ResumeTime = &now
	p.ResumeAction = action
	p.ResumeUserID = userID
	p.InputData = inputs
	p.Comments = comments
}

// IsOpen reports whether the pause has not yet been resolved.
func (p *PauseEvent) IsOpen() bool {
	return p.ResumeTime == nil
}
