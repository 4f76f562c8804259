package audit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // analytics consumers connect server-to-server
	},
}

// Feed fans audit events out to WebSocket subscribers (analytics/fraud
// services). Subscribers are read-only; the first subscriber starts the Redis
// subscription, the last one stops it.
type Feed struct {
	emitter *Emitter
	logger  *zap.Logger

	mu     sync.Mutex
	subs   map[string]chan models.AuditEvent
	cancel func()
}

// NewFeed creates an audit feed backed by the emitter's Redis channel.
func NewFeed(emitter *Emitter, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		emitter: emitter,
		logger:  logger,
		subs:    make(map[string]chan models.AuditEvent),
	}
}

func (f *Feed) register() (id string, ch chan models.AuditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id = uuid.New().String()
	ch = make(chan models.AuditEvent, 256)
	f.subs[id] = ch
	if f.cancel == nil {
		cancel, err := f.emitter.Subscribe(f.broadcast)
		if err != nil {
			f.logger.Warn("audit subscription failed", zap.Error(err))
		} else {
			f.cancel = cancel
		}
	}
	return id, ch
}

func (f *Feed) unregister(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, id)
	if len(f.subs) == 0 && f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Feed) broadcast(ev models.AuditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			// slow consumer, drop
		}
	}
}

// ServeWs handles the WebSocket upgrade and streams audit events until the
// consumer disconnects.
func (f *Feed) ServeWs() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			f.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		id, ch := f.register()
		f.logger.Debug("audit consumer connected", zap.String("consumer_id", id))

		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadLimit(1024)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer func() {
			ticker.Stop()
			f.unregister(id)
			_ = conn.Close()
		}()
		for {
			select {
			case <-done:
				return
			case ev := <-ch:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
