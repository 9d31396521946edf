package types

import "time"

// Session tracks per-(project, session) conversational state: how many
// messages have been processed and when the session was last active.
type Session struct {
	SessionID             string            `json:"session_id" yaml:"session_id"`
	ProjectID             string            `json:"project_id" yaml:"project_id"`
	MessageCount          int               `json:"message_count" yaml:"message_count"`
	FirstSessionCompleted bool              `json:"first_session_completed" yaml:"first_session_completed"`
	LastActive            time.Time         `json:"last_active" yaml:"last_active"`
	Metadata              map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SessionSummary is an append-only per-project record produced by the
// curator at the end of a session. Latest-wins for display purposes.
type SessionSummary struct {
	ID        string    `json:"id" yaml:"id"`
	ProjectID string    `json:"project_id" yaml:"project_id"`
	SessionID string    `json:"session_id" yaml:"session_id"`
	Summary   string    `json:"summary" yaml:"-"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ProjectSnapshot is an append-only per-project record of overall project
// state ("what is this project, where does it stand"). Latest-wins.
type ProjectSnapshot struct {
	ID        string    `json:"id" yaml:"id"`
	ProjectID string    `json:"project_id" yaml:"project_id"`
	Snapshot  string    `json:"snapshot" yaml:"-"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ManagementLog records the outcome of one Lifecycle Manager pass: how many
// memories were processed, superseded, resolved, action-cleared, or linked.
type ManagementLog struct {
	ID                string        `json:"id" yaml:"id"`
	ProjectID         string        `json:"project_id" yaml:"project_id"`
	SessionID         string        `json:"session_id" yaml:"session_id"`
	Processed         int           `json:"processed" yaml:"processed"`
	Superseded        int           `json:"superseded" yaml:"superseded"`
	Resolved          int           `json:"resolved" yaml:"resolved"`
	ActionCleared     int           `json:"action_cleared" yaml:"action_cleared"`
	Linked            int           `json:"linked" yaml:"linked"`
	FilesTouched      []string      `json:"files_touched,omitempty" yaml:"files_touched,omitempty"`
	Success           bool          `json:"success" yaml:"success"`
	FailureReason     string        `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
	Duration          time.Duration `json:"duration" yaml:"duration"`
	CreatedAt         time.Time     `json:"created_at" yaml:"created_at"`
}

// PersonalPrimer is the singleton global markdown document read at the start
// of every session. It is the only file the Lifecycle Manager may create;
// every other write is an update.
type PersonalPrimer struct {
	Content   string    `json:"content" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
