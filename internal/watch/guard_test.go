package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardAcceptsNaturalProgress(t *testing.T) {
	g := NewGuard(1.0)
	g.SetDuration(10)

	for _, pos := range []float64{0.5, 1.0, 1.8, 2.5} {
		obs := g.Observe(pos)
		assert.True(t, obs.Accepted, "position %v", pos)
	}
	assert.InDelta(t, 2.5, g.LastPosition(), 1e-9)
	assert.InDelta(t, 0.25, g.Progress(), 1e-9)
}

func TestGuardRejectsSeeks(t *testing.T) {
	t.Run("forward jump beyond tolerance", func(t *testing.T) {
		g := NewGuard(0.5)
		g.SetDuration(30)
		g.Observe(0.4)

		before := g.LastPosition()
		obs := g.Observe(12.0)
		require.False(t, obs.Accepted)
		assert.InDelta(t, before, g.LastPosition(), DefaultSeekEpsilon, "rejected update must not advance stored progress")
		assert.InDelta(t, before-DefaultSeekEpsilon, obs.Position, 1e-9)
	})

	t.Run("backward jump beyond tolerance", func(t *testing.T) {
		g := NewGuard(0.5)
		g.SetDuration(30)
		g.Observe(0.4)
		g.Observe(0.8)

		before := g.LastPosition()
		progressBefore := g.Progress()
		obs := g.Observe(0.1)
		require.False(t, obs.Accepted)
		assert.InDelta(t, before, g.LastPosition(), 1e-9)
		assert.Equal(t, progressBefore, g.Progress(), "progress never drops on rejection")
	})

	t.Run("corrected position clamps at zero", func(t *testing.T) {
		g := NewGuard(0.5)
		g.SetDuration(30)
		obs := g.Observe(20)
		require.False(t, obs.Accepted)
		assert.GreaterOrEqual(t, obs.Position, 0.0)
	})
}

func TestGuardProgressMonotone(t *testing.T) {
	g := NewGuard(0.5)
	g.SetDuration(10)

	g.Observe(0.4)
	g.Observe(0.8)
	high := g.Progress()

	// Accepted small backward wobble: stored position moves, progress does not.
	obs := g.Observe(0.5)
	require.True(t, obs.Accepted)
	assert.InDelta(t, 0.5, g.LastPosition(), 1e-9)
	assert.Equal(t, high, g.Progress())
}

// Coarse 5-second position samples with one seek-back attempt; duration 30s.
func TestGuardCoarseSamplesWithSeekBack(t *testing.T) {
	g := NewGuard(5.5)
	g.SetDuration(30)

	for _, pos := range []float64{5, 10, 15} {
		require.True(t, g.Observe(pos).Accepted)
	}

	obs := g.Observe(9)
	require.False(t, obs.Accepted, "seek back to 9 must be rejected")
	assert.GreaterOrEqual(t, g.LastPosition(), 15.0, "rejected update must not reduce stored position below 15")

	for _, pos := range []float64{16, 20, 25, 30} {
		require.True(t, g.Observe(pos).Accepted, "position %v", pos)
	}

	assert.InDelta(t, 1.0, g.Progress(), 1e-9)
	assert.True(t, g.ReachedEnd())
}

func TestGuardBuffersUntilDurationKnown(t *testing.T) {
	g := NewGuard(5.5)

	// Metadata not loaded yet: provisionally accepted, no progress computed.
	g.Observe(5)
	g.Observe(10)
	assert.Zero(t, g.Progress())

	g.SetDuration(20)
	assert.InDelta(t, 0.5, g.Progress(), 1e-9)
	assert.InDelta(t, 10, g.LastPosition(), 1e-9)
}

func TestGuardFreeze(t *testing.T) {
	g := NewGuard(0.5)
	g.SetDuration(10)
	g.Observe(0.3)

	g.Freeze()
	assert.Equal(t, 1.0, g.Progress())
}
