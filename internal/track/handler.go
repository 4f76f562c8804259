// Package track implements the tracking API: the server counterpart of the
// watch protocol (resolve, start, complete) plus watch token issuance.
package track

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/tokens"
	"github.com/bereket-09/adlaunch-platform-sub000/pkg/queue"
	"github.com/bereket-09/adlaunch-platform-sub000/pkg/response"
)

// Store is the persistence surface the handler needs.
type Store interface {
	CreateAssignment(ctx context.Context, a *models.AdAssignment) error
	GetAssignment(ctx context.Context, id uuid.UUID) (*models.AdAssignment, error)
	UpsertSession(ctx context.Context, assignmentID uuid.UUID, token, meta string) (*models.WatchSession, error)
	GetSessionByToken(ctx context.Context, token string) (*models.WatchSession, error)
	MarkStarted(ctx context.Context, token string) error
	MarkCompleted(ctx context.Context, token string) error
}

// RewardStore records reward grants.
type RewardStore interface {
	Create(ctx context.Context, rec *models.RewardRecord) error
}

// Enqueuer hands reward records to the fulfillment worker.
type Enqueuer interface {
	EnqueueFulfillment(ctx context.Context, payload queue.FulfillmentPayload) error
}

// AuditSink receives protocol audit events.
type AuditSink interface {
	Emit(kind, token string, ev models.AuditEvent)
}

// URLSigner presigns playback URLs for creatives stored in S3.
type URLSigner interface {
	PresignPlaybackURL(ctx context.Context, key string) (string, error)
}

// Handler serves the watch protocol endpoints.
type Handler struct {
	store    Store
	rewards  RewardStore
	keys     *Keychain
	tokens   *tokens.Service
	signer   URLSigner // optional
	jobs     Enqueuer  // optional
	audit    AuditSink // optional
	watchURL string
	logger   *zap.Logger
}

// NewHandler creates a track handler. signer, jobs and audit may be nil.
func NewHandler(store Store, rewardStore RewardStore, keys *Keychain, tokenSvc *tokens.Service,
	signer URLSigner, jobs Enqueuer, audit AuditSink, watchURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    store,
		rewards:  rewardStore,
		keys:     keys,
		tokens:   tokenSvc,
		signer:   signer,
		jobs:     jobs,
		audit:    audit,
		watchURL: watchURL,
		logger:   logger,
	}
}

// ResolveVideo handles GET /video/:token?meta=... — exchanges a watch token
// for the video descriptor and the initial secure key.
func (h *Handler) ResolveVideo(c *gin.Context) {
	token := c.Param("token")
	meta := c.Query("meta")

	claims, err := h.tokens.Validate(token)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ResolveResponse{Status: models.StatusError, Message: "unknown watch token"})
		return
	}
	assignment, err := h.store.GetAssignment(c.Request.Context(), claims.AssignmentID)
	if err != nil {
		h.logger.Error("load assignment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ResolveResponse{Status: models.StatusError, Message: "internal"})
		return
	}
	if assignment == nil || !assignment.Active {
		c.JSON(http.StatusNotFound, models.ResolveResponse{Status: models.StatusError, Message: "assignment not available"})
		return
	}

	videoURL := assignment.VideoURL
	if assignment.S3Key != "" && h.signer != nil {
		if signed, err := h.signer.PresignPlaybackURL(c.Request.Context(), assignment.S3Key); err == nil {
			videoURL = signed
		} else {
			h.logger.Warn("presign playback url failed", zap.Error(err))
		}
	}

	key, err := h.keys.Issue(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("issue secure key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ResolveResponse{Status: models.StatusError, Message: "internal"})
		return
	}
	if _, err := h.store.UpsertSession(c.Request.Context(), assignment.ID, token, meta); err != nil {
		h.logger.Error("record session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ResolveResponse{Status: models.StatusError, Message: "internal"})
		return
	}
	h.emit(models.AuditResolve, token, assignment, meta, "")

	c.JSON(http.StatusOK, models.ResolveResponse{
		Status:    models.StatusOK,
		AdID:      assignment.AdID,
		VideoURL:  videoURL,
		Token:     token,
		SecureKey: key,
	})
}

// TrackStart handles POST /track/start — consumes the current secure key and
// returns the rotated one.
func (h *Handler) TrackStart(c *gin.Context) {
	var req models.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, models.StartResponse{Status: models.StatusError, Message: "malformed request"})
		return
	}
	if _, err := h.tokens.Validate(req.Token); err != nil {
		c.JSON(http.StatusNotFound, models.StartResponse{Status: models.StatusError, Message: "unknown watch token"})
		return
	}

	next, err := h.keys.Rotate(c.Request.Context(), req.Token, req.SecureKey)
	if err != nil {
		if errors.Is(err, ErrStaleKey) {
			h.emit(models.AuditReplayRejected, req.Token, nil, req.Meta, "start with stale key")
			c.JSON(http.StatusConflict, models.StartResponse{Status: models.StatusError, Message: "secure key rejected"})
			return
		}
		h.logger.Error("rotate key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.StartResponse{Status: models.StatusError, Message: "internal"})
		return
	}
	if err := h.store.MarkStarted(c.Request.Context(), req.Token); err != nil {
		h.logger.Error("mark started", zap.Error(err))
	}
	h.emit(models.AuditStart, req.Token, nil, req.Meta, "")

	c.JSON(http.StatusOK, models.StartResponse{Status: models.StatusOK, SecureKey: next})
}

// TrackComplete handles POST /track/complete — consumes the rotated key,
// creates the reward record, and initiates fulfillment.
func (h *Handler) TrackComplete(c *gin.Context) {
	var req models.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, models.CompleteResponse{Status: models.StatusError, Message: "malformed request"})
		return
	}
	if _, err := h.tokens.Validate(req.Token); err != nil {
		c.JSON(http.StatusNotFound, models.CompleteResponse{Status: models.StatusError, Message: "unknown watch token"})
		return
	}

	ctx := c.Request.Context()
	if err := h.keys.Consume(ctx, req.Token, req.SecureKey); err != nil {
		if errors.Is(err, ErrStaleKey) {
			h.emit(models.AuditReplayRejected, req.Token, nil, req.Meta, "complete with stale key")
			c.JSON(http.StatusConflict, models.CompleteResponse{Status: models.StatusError, Message: "secure key rejected"})
			return
		}
		h.logger.Error("consume key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.CompleteResponse{Status: models.StatusError, Message: "internal"})
		return
	}

	session, err := h.store.GetSessionByToken(ctx, req.Token)
	if err != nil || session == nil {
		h.logger.Error("load session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.CompleteResponse{Status: models.StatusError, Message: "internal"})
		return
	}
	assignment, err := h.store.GetAssignment(ctx, session.AssignmentID)
	if err != nil || assignment == nil {
		h.logger.Error("load assignment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.CompleteResponse{Status: models.StatusError, Message: "internal"})
		return
	}
	if err := h.store.MarkCompleted(ctx, req.Token); err != nil {
		h.logger.Error("mark completed", zap.Error(err))
	}

	rec := models.RewardRecord{
		SessionID: session.ID,
		AdID:      assignment.AdID,
		MSISDN:    assignment.MSISDN,
		Granted:   true,
	}
	if err := h.rewards.Create(ctx, &rec); err != nil {
		h.logger.Error("create reward record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.CompleteResponse{Status: models.StatusError, Message: "internal"})
		return
	}
	if h.jobs != nil {
		if err := h.jobs.EnqueueFulfillment(ctx, queue.FulfillmentPayload{
			RewardRecordID: rec.ID,
			AdID:           rec.AdID,
			MSISDN:         rec.MSISDN,
		}); err != nil {
			h.logger.Error("enqueue fulfillment", zap.Error(err))
		}
	}
	h.emit(models.AuditComplete, req.Token, assignment, req.Meta, "")

	c.JSON(http.StatusOK, models.CompleteResponse{Status: models.StatusOK, RewardRecordID: rec.ID.String()})
}

type issueRequest struct {
	AdID     string `json:"ad_id" binding:"required"`
	MSISDN   string `json:"msisdn" binding:"required"`
	VideoURL string `json:"video_url"`
	S3Key    string `json:"s3_key"`
}

// IssueToken handles POST /tokens/issue — creates an assignment and mints the
// watch token the campaign service embeds in the SMS link.
func (h *Handler) IssueToken(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "ad_id and msisdn are required")
		return
	}
	if req.VideoURL == "" && req.S3Key == "" {
		response.BadRequest(c, "one of video_url or s3_key is required")
		return
	}
	assignment := models.AdAssignment{
		AdID:     req.AdID,
		MSISDN:   req.MSISDN,
		VideoURL: req.VideoURL,
		S3Key:    req.S3Key,
	}
	if err := h.store.CreateAssignment(c.Request.Context(), &assignment); err != nil {
		h.logger.Error("create assignment", zap.Error(err))
		response.Internal(c, "could not create assignment")
		return
	}
	token, err := h.tokens.Issue(assignment.ID, assignment.AdID)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		response.Internal(c, "could not issue token")
		return
	}
	response.Created(c, gin.H{
		"token":     token,
		"watch_url": h.watchURL + "?v=" + token,
	})
}

func (h *Handler) emit(kind, token string, assignment *models.AdAssignment, meta, detail string) {
	if h.audit == nil {
		return
	}
	ev := models.AuditEvent{MetaEnvelope: meta, Detail: detail}
	if assignment != nil {
		ev.AdID = assignment.AdID
		ev.MSISDN = assignment.MSISDN
	}
	h.audit.Emit(kind, token, ev)
}
