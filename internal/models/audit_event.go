package models

import "time"

// Audit event kinds emitted by the tracking API.
const (
	AuditResolve        = "resolve"
	AuditStart          = "start"
	AuditComplete       = "complete"
	AuditReplayRejected = "replay_rejected"
)

// AuditEvent is a verifiable protocol signal consumed by the analytics and
// fraud services. The tracking API emits; it never scores.
type AuditEvent struct {
	Kind         string    `json:"kind"`
	WatchToken   string    `json:"watch_token"`
	AdID         string    `json:"ad_id,omitempty"`
	MSISDN       string    `json:"msisdn,omitempty"`
	MetaEnvelope string    `json:"meta_envelope,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	At           time.Time `json:"at"`
}
