// Package watch implements the client-held secure video reward session: token
// exchange, rotating single-use secure keys, seek suppression, and the
// completion/reward handshake.
package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

// State enumerates the watch session lifecycle. Transitions are forward-only;
// "watch another ad" creates a brand-new Session rather than rewinding one.
type State int

const (
	StateLoading State = iota
	StateReady
	StatePlaying
	StateCompleted
	StateRewarded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateCompleted:
		return "completed"
	case StateRewarded:
		return "rewarded"
	default:
		return "error"
	}
}

// SessionConfig carries everything a session needs explicitly; sessions never
// read ambient global state.
type SessionConfig struct {
	Token  string // opaque watch token from the SMS link; empty runs demo mode
	Meta   string // encoded metadata envelope, built once and reused for every call
	Client ProtocolClient
	Policy FallbackPolicy
	// SeekToleranceSec is the playback guard tolerance; zero uses the default.
	SeekToleranceSec float64
	Logger           *zap.Logger
}

// Session owns one watch attempt end to end. All protocol steps are
// serialized: start is gated on resolution, complete on natural end of
// playback. A session is discarded when the attempt ends; late responses for
// a closed session are never applied.
type Session struct {
	id     uuid.UUID
	token  string
	meta   string
	policy FallbackPolicy
	logger *zap.Logger

	client   ProtocolClient
	resolver *Resolver
	rewards  *ResultHandler
	keys     *Keyring
	guard    *Guard

	mu         sync.Mutex
	state      State
	demo       bool
	descriptor VideoDescriptor
	reward     *RewardOutcome
	startedAt  time.Time
	endedAt    time.Time
	inflight   bool
	closed     bool
}

// NewSession creates a session in Loading state.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Policy.DemoVideoURL == "" {
		cfg.Policy = DefaultFallbackPolicy()
	}
	id := uuid.New()
	return &Session{
		id:       id,
		token:    cfg.Token,
		meta:     cfg.Meta,
		policy:   cfg.Policy,
		logger:   logger.With(zap.String("session_id", id.String())),
		client:   cfg.Client,
		resolver: NewResolver(cfg.Client, cfg.Policy, logger),
		rewards:  NewResultHandler(cfg.Policy, logger),
		keys:     NewKeyring(),
		guard:    NewGuard(cfg.SeekToleranceSec),
		state:    StateLoading,
	}
}

// Resolve performs the token exchange and moves the session to Ready. It may
// be called again on a page retry; the keyring keeps only the freshest key.
func (s *Session) Resolve(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateLoading && s.state != StateReady {
		s.mu.Unlock()
		return ErrBadTransition
	}
	if s.inflight {
		s.mu.Unlock()
		return ErrBadTransition
	}
	s.inflight = true
	s.mu.Unlock()

	res, err := s.resolver.Resolve(ctx, s.token, s.meta)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false
	if s.closed {
		return ErrClosed
	}
	if err != nil {
		s.failLocked("resolution failed", err)
		return err
	}
	s.descriptor = res.Descriptor
	s.demo = res.Demo
	s.keys.Install(res.SecureKey)
	s.setStateLocked(StateReady)
	return nil
}

// Start consumes the current secure key against /track/start and moves the
// session to Playing. A transport failure degrades to the soft path: playback
// proceeds and the key is left unrotated, so a later complete call presents
// the last successfully rotated key.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateReady || s.inflight {
		s.mu.Unlock()
		return ErrBadTransition
	}
	if s.demo {
		s.startedAt = time.Now()
		s.setStateLocked(StatePlaying)
		s.mu.Unlock()
		return nil
	}
	s.inflight = true
	consumed := s.keys.Current()
	s.mu.Unlock()

	resp, err := s.client.TrackStart(ctx, models.TrackRequest{
		Token:     s.token,
		Meta:      s.meta,
		SecureKey: consumed,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false
	if s.closed {
		return ErrClosed
	}
	switch {
	case err == nil:
		if rerr := s.keys.Rotate(consumed, resp.SecureKey); rerr != nil {
			s.failLocked("start key rotation", rerr)
			return rerr
		}
	case isStale(err):
		s.failLocked("start rejected", err)
		return err
	default:
		// Transport failure: absorbed, no rotation recorded.
		s.logger.Warn("start call failed, playing anyway", zap.Error(err))
	}
	s.startedAt = time.Now()
	s.setStateLocked(StatePlaying)
	return nil
}

// OnLoaded implements PlayerEvents: installs the media duration.
func (s *Session) OnLoaded(duration float64) {
	s.guard.SetDuration(duration)
}

// OnPosition implements PlayerEvents: polices one playback position update
// and returns the position the player must hold.
func (s *Session) OnPosition(position float64) float64 {
	obs := s.guard.Observe(position)
	if !obs.Accepted {
		s.logger.Debug("seek rejected",
			zap.Float64("proposed", position),
			zap.Float64("corrected", obs.Position))
	}
	return obs.Position
}

// OnSeekAttempt implements PlayerEvents: explicit seeks are always reverted.
func (s *Session) OnSeekAttempt(target float64) float64 {
	return s.guard.Reject(target).Position
}

// OnEnded implements PlayerEvents: on natural end of media with full accepted
// progress the session moves to Completed with progress frozen at 1.0. An
// ended signal without full progress is ignored; completion is only reachable
// through accepted position updates.
func (s *Session) OnEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StatePlaying {
		return
	}
	if !s.guard.ReachedEnd() {
		s.logger.Warn("ended signal without full progress, ignoring",
			zap.Float64("progress", s.guard.Progress()))
		return
	}
	s.guard.Freeze()
	s.endedAt = time.Now()
	s.setStateLocked(StateCompleted)
}

// Complete issues the reward handshake and moves the session to Rewarded.
// A failed call still ends in Rewarded after the policy's soft delay (the
// soft path is deliberate, see ResultHandler); only a stale key is fatal.
func (s *Session) Complete(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateCompleted || s.inflight {
		s.mu.Unlock()
		return ErrBadTransition
	}
	if s.demo {
		s.reward = &RewardOutcome{}
		s.setStateLocked(StateRewarded)
		s.mu.Unlock()
		return nil
	}
	s.inflight = true
	consumed := s.keys.Current()
	s.mu.Unlock()

	resp, callErr := s.client.TrackComplete(ctx, models.TrackRequest{
		Token:     s.token,
		Meta:      s.meta,
		SecureKey: consumed,
	})
	outcome, err := s.rewards.Interpret(resp, callErr)
	if err == nil && outcome.Soft {
		select {
		case <-time.After(s.policy.SoftDelay):
		case <-ctx.Done():
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false
	if s.closed {
		return ErrClosed
	}
	if err != nil {
		s.failLocked("complete rejected", err)
		return err
	}
	s.reward = &outcome
	s.setStateLocked(StateRewarded)
	return nil
}

// Close discards the session. In-flight responses arriving afterwards are
// dropped; the caller starts a brand-new session to watch another ad.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Descriptor returns the resolved video descriptor.
func (s *Session) Descriptor() VideoDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.descriptor
}

// Demo reports whether the session runs against the demo descriptor.
func (s *Session) Demo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demo
}

// Progress returns the playback progress fraction.
func (s *Session) Progress() float64 { return s.guard.Progress() }

// LastPosition returns the last accepted playback position in seconds.
func (s *Session) LastPosition() float64 { return s.guard.LastPosition() }

// CurrentKey exposes the held secure key for diagnostics and tests.
func (s *Session) CurrentKey() string { return s.keys.Current() }

// Reward returns the reward outcome, valid once the session is Rewarded.
func (s *Session) Reward() (RewardOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reward == nil {
		return RewardOutcome{}, false
	}
	return *s.reward, true
}

func (s *Session) setStateLocked(to State) {
	s.logger.Info("session state", zap.Stringer("from", s.state), zap.Stringer("to", to))
	s.state = to
}

func (s *Session) failLocked(reason string, err error) {
	s.logger.Error("session fatal", zap.String("reason", reason), zap.Error(err))
	s.state = StateError
}

func isStale(err error) bool {
	return errors.Is(err, ErrStaleKey)
}
