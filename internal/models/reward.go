package models

import (
	"time"

	"github.com/google/uuid"
)

// Fulfillment statuses for a reward record.
const (
	FulfillmentPending = "pending"
	FulfillmentSent    = "sent"
	FulfillmentFailed  = "failed"
)

// RewardRecord is created when a watch session completes; the worker forwards
// it to the external crediting backend and updates FulfillmentStatus.
type RewardRecord struct {
	ID                uuid.UUID `json:"id"`
	SessionID         uuid.UUID `json:"session_id"`
	AdID              string    `json:"ad_id"`
	MSISDN            string    `json:"msisdn"`
	Granted           bool      `json:"granted"`
	FulfillmentStatus string    `json:"fulfillment_status"`
	CreatedAt         time.Time `json:"created_at"`
}
