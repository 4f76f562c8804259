package models

import (
	"time"

	"github.com/google/uuid"
)

// AdAssignment links a subscriber (MSISDN) to a sponsored video creative.
// The watch token issued for the SMS link resolves back to this row.
type AdAssignment struct {
	ID        uuid.UUID `json:"id"`
	AdID      string    `json:"ad_id"`
	MSISDN    string    `json:"msisdn"`
	VideoURL  string    `json:"video_url,omitempty"`
	S3Key     string    `json:"s3_key,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
