// Package audit emits verifiable protocol signals for the analytics and
// fraud services. The tracking API only emits; scoring happens downstream.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

const (
	channel    = "audit:events"
	publishTTL = 5 * time.Second
)

// Emitter publishes audit events to the Redis channel consumed by the feed
// hub on every API instance.
type Emitter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewEmitter creates an audit emitter.
func NewEmitter(client *redis.Client, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{client: client, logger: logger}
}

// Emit publishes one audit event. Emission is best-effort: a failed publish
// is logged, never propagated into the protocol path.
func (e *Emitter) Emit(kind, token string, ev models.AuditEvent) {
	ev.Kind = kind
	ev.WatchToken = token
	ev.At = time.Now()
	body, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTTL)
	defer cancel()
	if err := e.client.Publish(ctx, channel, body).Err(); err != nil {
		e.logger.Warn("audit publish failed", zap.String("kind", kind), zap.Error(err))
	}
}

// Subscribe consumes the audit channel and calls handler for each event.
// Returns a cancel function to stop the subscription.
func (e *Emitter) Subscribe(handler func(ev models.AuditEvent)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := e.client.Subscribe(ctx, channel)
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, err
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.AuditEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				handler(ev)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}
