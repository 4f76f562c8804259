package watch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

func testPolicy() FallbackPolicy {
	return FallbackPolicy{
		DemoAdID:     "demo-ad",
		DemoVideoURL: "https://example.com/demo.mp4",
		SoftDelay:    0,
	}
}

func TestResolveDemoModeWithoutToken(t *testing.T) {
	client := &fakeClient{}
	r := NewResolver(client, testPolicy(), nil)

	res, err := r.Resolve(context.Background(), "", "meta")
	require.NoError(t, err)

	assert.True(t, res.Demo)
	assert.Equal(t, "demo-ad", res.Descriptor.AdID)
	assert.Equal(t, DemoKey, res.SecureKey)
	assert.Zero(t, client.resolveCalls, "demo mode must not touch the network")
}

func TestResolveSuccess(t *testing.T) {
	client := &fakeClient{
		resolveResp: &models.ResolveResponse{
			Status: models.StatusOK, AdID: "ad-7", VideoURL: "https://cdn.example/v.mp4", SecureKey: "k1",
		},
	}
	r := NewResolver(client, testPolicy(), nil)

	res, err := r.Resolve(context.Background(), "tok123", "meta")
	require.NoError(t, err)

	assert.False(t, res.Demo)
	assert.Equal(t, "ad-7", res.Descriptor.AdID)
	assert.Equal(t, "k1", res.SecureKey)
}

func TestResolveFallsBack(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"rejected token", fmt.Errorf("%w: status 404", ErrInvalidToken)},
		{"transport failure", fmt.Errorf("%w: connection refused", ErrTransport)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{resolveErr: tc.err}
			r := NewResolver(client, testPolicy(), nil)

			res, err := r.Resolve(context.Background(), "tok123", "meta")
			require.NoError(t, err, "fallback must absorb the error")
			assert.True(t, res.Demo)
			assert.Equal(t, DemoKey, res.SecureKey)
		})
	}
}

func TestResolveRepeatYieldsFreshKey(t *testing.T) {
	client := &fakeClient{
		resolveResp: &models.ResolveResponse{Status: models.StatusOK, AdID: "ad-7", VideoURL: "u", SecureKey: "k1"},
	}
	r := NewResolver(client, testPolicy(), nil)

	first, err := r.Resolve(context.Background(), "tok123", "meta")
	require.NoError(t, err)

	client.resolveResp.SecureKey = "k1b"
	second, err := r.Resolve(context.Background(), "tok123", "meta")
	require.NoError(t, err)

	assert.NotEqual(t, first.SecureKey, second.SecureKey)
	assert.Equal(t, 2, client.resolveCalls)
}
