// Package worker drains queued reward fulfillment jobs and forwards them to
// the external crediting backend.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/rewards"
	"github.com/bereket-09/adlaunch-platform-sub000/pkg/queue"
)

// FulfillmentProcessor processes reward fulfillment jobs: POST the grant to
// the fulfillment endpoint, update the reward record status.
type FulfillmentProcessor struct {
	rewardRepo *rewards.Repository
	queue      *queue.Queue
	endpoint   string
	client     *http.Client
	logger     *zap.Logger
}

// NewFulfillmentProcessor creates a fulfillment processor. An empty endpoint
// marks records sent without an outbound call (useful in staging).
func NewFulfillmentProcessor(rewardRepo *rewards.Repository, q *queue.Queue, endpoint string, timeout time.Duration, logger *zap.Logger) *FulfillmentProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &FulfillmentProcessor{
		rewardRepo: rewardRepo,
		queue:      q,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Process executes one fulfillment job.
func (p *FulfillmentProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeFulfillment {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.FulfillmentPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	rec, err := p.rewardRepo.GetByID(ctx, payload.RewardRecordID)
	if err != nil || rec == nil {
		return fmt.Errorf("reward record not found: %s", payload.RewardRecordID)
	}
	if rec.FulfillmentStatus == models.FulfillmentSent {
		p.logger.Info("reward already fulfilled", zap.String("reward_record_id", rec.ID.String()))
		return nil
	}

	if p.endpoint != "" {
		if err := p.forward(ctx, payload); err != nil {
			_ = p.rewardRepo.UpdateFulfillment(ctx, rec.ID, models.FulfillmentFailed)
			return err
		}
	}
	if err := p.rewardRepo.UpdateFulfillment(ctx, rec.ID, models.FulfillmentSent); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	p.logger.Info("reward forwarded",
		zap.String("reward_record_id", rec.ID.String()),
		zap.String("ad_id", rec.AdID))
	return nil
}

func (p *FulfillmentProcessor) forward(ctx context.Context, payload queue.FulfillmentPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal grant: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fulfillment call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("fulfillment status: %d", resp.StatusCode)
	}
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *FulfillmentProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("fulfillment worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
