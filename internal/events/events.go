package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type enumerates emitted event categories.
type Type string

const (
	TypeRunStarted   Type = "run.started"
	TypeRunCompleted Type = "run.completed"
	TypeRunFailed    Type = "run.failed"
)

// Event describes one agent run transition, published for dashboards or
// chat-ops listeners.
type Event struct {
	ID     uuid.UUID `json:"id"`
	Type   Type      `json:"type"`
	RunID  uuid.UUID `json:"run_id"`
	Prompt string    `json:"prompt,omitempty"`
	Mode   string    `json:"mode,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Publisher emits events. Publishing is best-effort: a failed publish never
// fails the run that produced it.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
