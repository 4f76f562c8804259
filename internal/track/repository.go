package track

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

// Repository persists ad assignments and watch sessions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a track repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateAssignment inserts an ad assignment (used by token issuance).
func (r *Repository) CreateAssignment(ctx context.Context, a *models.AdAssignment) error {
	const q = `INSERT INTO ad_assignments (id, ad_id, msisdn, video_url, s3_key, active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, TRUE)
		RETURNING id, active, created_at`
	return r.pool.QueryRow(ctx, q, a.AdID, a.MSISDN, a.VideoURL, a.S3Key).
		Scan(&a.ID, &a.Active, &a.CreatedAt)
}

// GetAssignment returns an assignment by ID, or nil when absent.
func (r *Repository) GetAssignment(ctx context.Context, id uuid.UUID) (*models.AdAssignment, error) {
	const q = `SELECT id, ad_id, msisdn, video_url, s3_key, active, created_at
		FROM ad_assignments WHERE id = $1`
	var a models.AdAssignment
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&a.ID, &a.AdID, &a.MSISDN, &a.VideoURL, &a.S3Key, &a.Active, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertSession records a resolution for a watch token. Repeated resolution
// (page retry) refreshes the metadata envelope instead of creating a second
// session row.
func (r *Repository) UpsertSession(ctx context.Context, assignmentID uuid.UUID, token, meta string) (*models.WatchSession, error) {
	const q = `INSERT INTO watch_sessions (id, assignment_id, watch_token, state, meta_envelope)
		VALUES (gen_random_uuid(), $1, $2, 'resolved', $3)
		ON CONFLICT (watch_token) DO UPDATE SET meta_envelope = EXCLUDED.meta_envelope
		RETURNING id, assignment_id, watch_token, state, meta_envelope, started_at, completed_at, created_at`
	var s models.WatchSession
	err := r.pool.QueryRow(ctx, q, assignmentID, token, meta).
		Scan(&s.ID, &s.AssignmentID, &s.WatchToken, &s.State, &s.MetaEnvelope, &s.StartedAt, &s.CompletedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionByToken returns the watch session for a token, or nil when absent.
func (r *Repository) GetSessionByToken(ctx context.Context, token string) (*models.WatchSession, error) {
	const q = `SELECT id, assignment_id, watch_token, state, meta_envelope, started_at, completed_at, created_at
		FROM watch_sessions WHERE watch_token = $1`
	var s models.WatchSession
	err := r.pool.QueryRow(ctx, q, token).
		Scan(&s.ID, &s.AssignmentID, &s.WatchToken, &s.State, &s.MetaEnvelope, &s.StartedAt, &s.CompletedAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkStarted moves a session to started and stamps started_at once.
func (r *Repository) MarkStarted(ctx context.Context, token string) error {
	const q = `UPDATE watch_sessions SET state = 'started', started_at = COALESCE(started_at, NOW())
		WHERE watch_token = $1`
	_, err := r.pool.Exec(ctx, q, token)
	return err
}

// MarkCompleted moves a session to completed and stamps completed_at once.
func (r *Repository) MarkCompleted(ctx context.Context, token string) error {
	const q = `UPDATE watch_sessions SET state = 'completed', completed_at = COALESCE(completed_at, NOW())
		WHERE watch_token = $1`
	_, err := r.pool.Exec(ctx, q, token)
	return err
}
