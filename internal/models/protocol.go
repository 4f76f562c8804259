package models

// Wire types for the watch protocol (JSON over HTTPS). Shared by the client
// SDK in internal/watch and the tracking API in internal/track.

// Protocol status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ResolveResponse is the body of GET /video/{watch_token}.
type ResolveResponse struct {
	Status    string `json:"status"`
	AdID      string `json:"ad_id"`
	VideoURL  string `json:"video_url"`
	Token     string `json:"token"`
	SecureKey string `json:"secure_key"`
	Message   string `json:"message,omitempty"`
}

// TrackRequest is the body of POST /track/start and POST /track/complete.
type TrackRequest struct {
	Token     string `json:"token"`
	Meta      string `json:"meta"`
	SecureKey string `json:"secure_key"`
}

// StartResponse is the body of POST /track/start. SecureKey is the rotated
// key the client must present on the complete call.
type StartResponse struct {
	Status    string `json:"status"`
	SecureKey string `json:"secure_key"`
	Message   string `json:"message,omitempty"`
}

// CompleteResponse is the body of POST /track/complete.
type CompleteResponse struct {
	Status         string `json:"status"`
	RewardRecordID string `json:"reward_record_id"`
	Message        string `json:"message,omitempty"`
}
