package watch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

// fakeClient scripts the three protocol calls and records what it was sent.
type fakeClient struct {
	mu           sync.Mutex
	resolveResp  *models.ResolveResponse
	resolveErr   error
	startResp    *models.StartResponse
	startErr     error
	completeResp *models.CompleteResponse
	completeErr  error

	resolveCalls int
	startKeys    []string
	completeKeys []string
}

func (f *fakeClient) Resolve(context.Context, string, string) (*models.ResolveResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	return f.resolveResp, f.resolveErr
}

func (f *fakeClient) TrackStart(_ context.Context, req models.TrackRequest) (*models.StartResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startKeys = append(f.startKeys, req.SecureKey)
	return f.startResp, f.startErr
}

func (f *fakeClient) TrackComplete(_ context.Context, req models.TrackRequest) (*models.CompleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeKeys = append(f.completeKeys, req.SecureKey)
	return f.completeResp, f.completeErr
}

func newTestSession(token string, client ProtocolClient) *Session {
	return NewSession(SessionConfig{
		Token:            token,
		Meta:             "bWV0YQ==",
		Client:           client,
		Policy:           testPolicy(),
		SeekToleranceSec: 5.5,
	})
}

func playThrough(s *Session, duration float64) {
	s.OnLoaded(duration)
	for pos := 5.0; pos <= duration; pos += 5 {
		s.OnPosition(pos)
	}
	s.OnEnded()
}

// Full happy path: resolve k1, start rotates to k2, complete with k2 yields
// the reward record.
func TestSessionHappyPath(t *testing.T) {
	client := &fakeClient{
		resolveResp:  &models.ResolveResponse{Status: models.StatusOK, AdID: "ad-7", VideoURL: "u", SecureKey: "k1"},
		startResp:    &models.StartResponse{Status: models.StatusOK, SecureKey: "k2"},
		completeResp: &models.CompleteResponse{Status: models.StatusOK, RewardRecordID: "R-99"},
	}
	s := newTestSession("tok123", client)
	ctx := context.Background()

	require.Equal(t, StateLoading, s.State())
	require.NoError(t, s.Resolve(ctx))
	require.Equal(t, StateReady, s.State())

	keyBeforeStart := s.CurrentKey()
	require.NoError(t, s.Start(ctx))
	require.Equal(t, StatePlaying, s.State())
	assert.NotEqual(t, keyBeforeStart, s.CurrentKey(), "start must rotate the key")
	assert.Equal(t, []string{"k1"}, client.startKeys)

	playThrough(s, 30)
	require.Equal(t, StateCompleted, s.State())
	assert.Equal(t, 1.0, s.Progress())

	require.NoError(t, s.Complete(ctx))
	require.Equal(t, StateRewarded, s.State())
	assert.Equal(t, []string{"k2"}, client.completeKeys, "complete must present the rotated key")

	outcome, ok := s.Reward()
	require.True(t, ok)
	assert.Equal(t, "R-99", outcome.RecordID)
	assert.True(t, outcome.Granted)
}

// No token in the URL: resolution yields the demo descriptor and demo key
// without any network call.
func TestSessionDemoMode(t *testing.T) {
	client := &fakeClient{}
	s := newTestSession("", client)
	ctx := context.Background()

	require.NoError(t, s.Resolve(ctx))
	assert.True(t, s.Demo())
	assert.Equal(t, DemoKey, s.CurrentKey())
	assert.Zero(t, client.resolveCalls)

	require.NoError(t, s.Start(ctx))
	playThrough(s, 30)
	require.NoError(t, s.Complete(ctx))

	assert.Equal(t, StateRewarded, s.State())
	outcome, ok := s.Reward()
	require.True(t, ok)
	assert.False(t, outcome.Granted, "demo sessions never grant real rewards")
	assert.Zero(t, client.startKeys)
	assert.Zero(t, client.completeKeys)
}

// Start transport failure: session still advances to Playing, the key is not
// rotated, and the later complete call presents the last successfully rotated
// key.
func TestSessionStartSoftFailure(t *testing.T) {
	client := &fakeClient{
		resolveResp:  &models.ResolveResponse{Status: models.StatusOK, AdID: "ad-7", VideoURL: "u", SecureKey: "k1"},
		startErr:     fmt.Errorf("%w: connection reset", ErrTransport),
		completeResp: &models.CompleteResponse{Status: models.StatusOK, RewardRecordID: "R-1"},
	}
	s := newTestSession("tok123", client)
	ctx := context.Background()

	require.NoError(t, s.Resolve(ctx))
	require.NoError(t, s.Start(ctx), "transport failures are absorbed")
	assert.Equal(t, StatePlaying, s.State())
	assert.Equal(t, "k1", s.CurrentKey(), "failed start must not rotate the key")

	playThrough(s, 30)
	require.NoError(t, s.Complete(ctx))
	assert.Equal(t, []string{"k1"}, client.completeKeys)
}

// Complete transport failure: the session still ends Rewarded (soft path),
// distinguishable by Granted=false.
func TestSessionCompleteSoftFailure(t *testing.T) {
	client := &fakeClient{
		resolveResp: &models.ResolveResponse{Status: models.StatusOK, AdID: "ad-7", VideoURL: "u", SecureKey: "k1"},
		startResp:   &models.StartResponse{Status: models.StatusOK, SecureKey: "k2"},
		completeErr: fmt.Errorf("%w: timeout", ErrTransport),
	}
	s := newTestSession("tok123", client)
	ctx := context.Background()

	require.NoError(t, s.Resolve(ctx))
	require.NoError(t, s.Start(ctx))
	playThrough(s, 30)

	require.NoError(t, s.Complete(ctx))
	assert.Equal(t, StateRewarded, s.State())

	outcome, ok := s.Reward()
	require.True(t, ok)
	assert.True(t, outcome.Soft)
	assert.False(t, outcome.Granted)
	assert.Empty(t, outcome.RecordID)
}

func TestSessionStaleKeyIsFatal(t *testing.T) {
	client := &fakeClient{
		resolveResp: &models.ResolveResponse{Status: models.StatusOK, AdID: "ad-7", VideoURL: "u", SecureKey: "k1"},
		startErr:    fmt.Errorf("%w: key rejected by server", ErrStaleKey),
	}
	s := newTestSession("tok123", client)
	ctx := context.Background()

	require.NoError(t, s.Resolve(ctx))
	err := s.Start(ctx)
	assert.ErrorIs(t, err, ErrStaleKey)
	assert.Equal(t, StateError, s.State())
}

func TestSessionEndedRequiresFullProgress(t *testing.T) {
	client := &fakeClient{
		resolveResp: &models.ResolveResponse{Status: models.StatusOK, AdID: "ad-7", VideoURL: "u", SecureKey: "k1"},
		startResp:   &models.StartResponse{Status: models.StatusOK, SecureKey: "k2"},
	}
	s := newTestSession("tok123", client)
	ctx := context.Background()

	require.NoError(t, s.Resolve(ctx))
	require.NoError(t, s.Start(ctx))

	s.OnLoaded(30)
	s.OnPosition(5)
	s.OnEnded()

	assert.Equal(t, StatePlaying, s.State(), "ended without full accepted progress must not complete")
}

func TestSessionTransitionGating(t *testing.T) {
	client := &fakeClient{
		resolveResp: &models.ResolveResponse{Status: models.StatusOK, AdID: "ad-7", VideoURL: "u", SecureKey: "k1"},
	}
	s := newTestSession("tok123", client)
	ctx := context.Background()

	t.Run("start before resolve", func(t *testing.T) {
		assert.ErrorIs(t, s.Start(ctx), ErrBadTransition)
	})
	t.Run("complete before playback", func(t *testing.T) {
		require.NoError(t, s.Resolve(ctx))
		assert.ErrorIs(t, s.Complete(ctx), ErrBadTransition)
	})
}

func TestSessionClosedDropsLateWork(t *testing.T) {
	client := &fakeClient{
		resolveResp: &models.ResolveResponse{Status: models.StatusOK, AdID: "ad-7", VideoURL: "u", SecureKey: "k1"},
	}
	s := newTestSession("tok123", client)
	s.Close()

	assert.ErrorIs(t, s.Resolve(context.Background()), ErrClosed)
	assert.Equal(t, StateLoading, s.State(), "closed session never advances")
}
