// Package rewards owns reward record persistence and fulfillment initiation.
// Actual crediting of data/voice/SMS belongs to the external fulfillment
// backend; this package only records and forwards.
package rewards

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

// Repository persists reward records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a rewards repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a reward record with fulfillment pending.
func (r *Repository) Create(ctx context.Context, rec *models.RewardRecord) error {
	const q = `INSERT INTO reward_records (id, session_id, ad_id, msisdn, granted, fulfillment_status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	rec.FulfillmentStatus = models.FulfillmentPending
	return r.pool.QueryRow(ctx, q, rec.SessionID, rec.AdID, rec.MSISDN, rec.Granted, rec.FulfillmentStatus).
		Scan(&rec.ID, &rec.CreatedAt)
}

// GetByID returns a reward record, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.RewardRecord, error) {
	const q = `SELECT id, session_id, ad_id, msisdn, granted, fulfillment_status, created_at
		FROM reward_records WHERE id = $1`
	var rec models.RewardRecord
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&rec.ID, &rec.SessionID, &rec.AdID, &rec.MSISDN, &rec.Granted, &rec.FulfillmentStatus, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateFulfillment sets the fulfillment status after the worker's attempt.
func (r *Repository) UpdateFulfillment(ctx context.Context, id uuid.UUID, status string) error {
	const q = `UPDATE reward_records SET fulfillment_status = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, status)
	return err
}
