package watch

import "sync"

// DefaultSeekEpsilon is subtracted from the corrected position when a seek is
// reverted, to avoid the player oscillating on the boundary.
const DefaultSeekEpsilon = 0.05

// PlayerEvents is the narrow capability interface a media-playback backend
// implements against the session: native player, embedded webview, or the CLI
// simulator. It decouples the guard from any particular UI toolkit.
type PlayerEvents interface {
	// OnLoaded reports the media duration in seconds once metadata is known.
	OnLoaded(duration float64)
	// OnPosition reports a playback position update and returns the position
	// the player must hold; on a rejected seek this differs from the input.
	OnPosition(position float64) float64
	// OnSeekAttempt reports an explicit seek request and returns the position
	// to reset to.
	OnSeekAttempt(target float64) float64
	// OnEnded reports natural end of media.
	OnEnded()
}

// Observation is the guard's verdict on a single position update.
type Observation struct {
	Accepted bool
	// Position to hold after the update: the proposed position when accepted,
	// the corrected reset position when rejected.
	Position float64
}

// Guard makes "watched end to end, in order, without skipping" observable
// client-side. Position updates whose delta exceeds the tolerance in either
// direction are rejected and the position is reset just behind the last
// accepted one. This is the first line of defense; server-side timing
// heuristics in the fraud service are the second.
type Guard struct {
	mu        sync.Mutex
	tolerance float64 // seconds
	epsilon   float64 // seconds
	duration  float64 // 0 until media metadata is loaded
	last      float64 // last accepted position
	progress  float64 // monotone, [0,1]
	buffered  []float64
}

// NewGuard creates a playback guard with the given seek tolerance in seconds.
func NewGuard(toleranceSec float64) *Guard {
	if toleranceSec <= 0 {
		toleranceSec = 0.5
	}
	return &Guard{tolerance: toleranceSec, epsilon: DefaultSeekEpsilon}
}

// SetDuration installs the media duration and replays any updates that
// arrived before metadata was loaded, in order, through the normal policing
// path.
func (g *Guard) SetDuration(duration float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if duration <= 0 {
		return
	}
	g.duration = duration
	for _, pos := range g.buffered {
		g.observeLocked(pos)
	}
	g.buffered = nil
}

// Observe polices one position update. Until the duration is known updates
// are buffered and provisionally accepted; they cannot advance progress yet.
func (g *Guard) Observe(position float64) Observation {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.duration <= 0 {
		g.buffered = append(g.buffered, position)
		return Observation{Accepted: true, Position: position}
	}
	return g.observeLocked(position)
}

func (g *Guard) observeLocked(position float64) Observation {
	delta := position - g.last
	if delta > g.tolerance || -delta > g.tolerance {
		// Seek attempt, either direction. Reset just behind the last accepted
		// position; stored progress never moves.
		corrected := g.last - g.epsilon
		if corrected < 0 {
			corrected = 0
		}
		return Observation{Accepted: false, Position: corrected}
	}
	g.last = position
	if frac := position / g.duration; frac > g.progress {
		if frac > 1 {
			frac = 1
		}
		g.progress = frac
	}
	return Observation{Accepted: true, Position: position}
}

// Reject handles an explicit seek request: always reverted.
func (g *Guard) Reject(float64) Observation {
	g.mu.Lock()
	defer g.mu.Unlock()
	corrected := g.last - g.epsilon
	if corrected < 0 {
		corrected = 0
	}
	return Observation{Accepted: false, Position: corrected}
}

// Progress returns the current progress fraction in [0,1].
func (g *Guard) Progress() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.progress
}

// LastPosition returns the last accepted playback position.
func (g *Guard) LastPosition() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// ReachedEnd reports whether accepted updates carried playback to the end of
// the media.
func (g *Guard) ReachedEnd() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.duration > 0 && g.last >= g.duration-g.epsilon
}

// Freeze pins the progress fraction to 1.0 once the session completes.
func (g *Guard) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.progress = 1.0
}
