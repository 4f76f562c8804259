package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchSession is the server-side record of one watch attempt. It mirrors the
// client state machine's lifecycle so the fraud pipeline can reconcile
// completions against the protocol calls that actually happened.
type WatchSession struct {
	ID           uuid.UUID  `json:"id"`
	AssignmentID uuid.UUID  `json:"assignment_id"`
	WatchToken   string     `json:"watch_token"`
	State        string     `json:"state"` // resolved, started, completed
	MetaEnvelope string     `json:"meta_envelope,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
