package watch

import (
	"errors"

	"go.uber.org/zap"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

// RewardOutcome is the result of the completion handshake, read-only once set.
// Granted is true only for a confirmed server grant; the soft path leaves it
// false with an empty record id so callers can tell the difference.
type RewardOutcome struct {
	RecordID string
	Granted  bool
	Soft     bool
}

// ResultHandler interprets the completion response. On a malformed or failed
// response the session is still shown as rewarded after the policy's soft
// delay rather than blocking the subscriber. The soft path is pending product
// sign-off; do not tighten it here without that.
type ResultHandler struct {
	policy FallbackPolicy
	logger *zap.Logger
}

// NewResultHandler creates a reward result handler.
func NewResultHandler(policy FallbackPolicy, logger *zap.Logger) *ResultHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultHandler{policy: policy, logger: logger}
}

// Interpret maps a completion response (or its error) to a RewardOutcome.
// A StaleKey error is the one failure that is not absorbed.
func (h *ResultHandler) Interpret(resp *models.CompleteResponse, err error) (RewardOutcome, error) {
	if err != nil {
		if errors.Is(err, ErrStaleKey) {
			return RewardOutcome{}, err
		}
		h.logger.Warn("complete call failed, soft reward", zap.Error(err))
		return RewardOutcome{Soft: true}, nil
	}
	if resp == nil || resp.RewardRecordID == "" {
		h.logger.Warn("malformed completion response, soft reward")
		return RewardOutcome{Soft: true}, nil
	}
	return RewardOutcome{RecordID: resp.RewardRecordID, Granted: true}, nil
}
