package watch

import "time"

// DemoKey is the secure key placeholder used in demo mode; demo sessions never
// talk to the tracking backend, so the key is never sent anywhere.
const DemoKey = "demo-key"

// FallbackPolicy is the single place deciding what happens when the backend
// cannot be reached. The subscriber is never blocked from seeing a video;
// only real reward flows require a live backend. Consulted uniformly by the
// Resolver and the ResultHandler.
type FallbackPolicy struct {
	DemoAdID     string
	DemoVideoURL string
	// SoftDelay is how long the session lingers in Completed before the
	// soft-rewarded transition when the complete call fails.
	SoftDelay time.Duration
}

// DefaultFallbackPolicy returns the production fallback values.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		DemoAdID:     "demo-ad",
		DemoVideoURL: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
		SoftDelay:    1200 * time.Millisecond,
	}
}

// DemoDescriptor returns the well-known public sample asset.
func (p FallbackPolicy) DemoDescriptor() VideoDescriptor {
	return VideoDescriptor{AdID: p.DemoAdID, VideoURL: p.DemoVideoURL}
}
