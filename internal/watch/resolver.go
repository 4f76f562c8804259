package watch

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// VideoDescriptor is the immutable result of token resolution.
type VideoDescriptor struct {
	AdID     string
	VideoURL string
}

// Resolution is what the resolver hands back to the session: the descriptor,
// the initial secure key, and whether the session is running in demo mode
// (no backend, no real reward flow).
type Resolution struct {
	Descriptor VideoDescriptor
	SecureKey  string
	Demo       bool
}

// Resolver exchanges a watch token for a video descriptor and the initial
// secure key. It never surfaces raw errors to the subscriber: a missing or
// rejected token, or an unreachable backend, falls back to the demo
// descriptor per the fallback policy.
type Resolver struct {
	client ProtocolClient
	policy FallbackPolicy
	logger *zap.Logger
}

// NewResolver creates a token resolver.
func NewResolver(client ProtocolClient, policy FallbackPolicy, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{client: client, policy: policy, logger: logger}
}

// Resolve performs the token exchange. An empty token activates demo mode
// deterministically without any network call. Calling twice with the same
// token is allowed and yields a fresh key each time.
func (r *Resolver) Resolve(ctx context.Context, token, meta string) (Resolution, error) {
	if token == "" {
		r.logger.Info("no watch token, demo mode")
		return r.demo(), nil
	}

	resp, err := r.client.Resolve(ctx, token, meta)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			r.logger.Warn("watch token rejected, demo fallback", zap.Error(err))
			return r.demo(), nil
		case errors.Is(err, ErrTransport):
			r.logger.Warn("resolution transport failure, demo fallback", zap.Error(err))
			return r.demo(), nil
		default:
			return Resolution{}, err
		}
	}

	return Resolution{
		Descriptor: VideoDescriptor{AdID: resp.AdID, VideoURL: resp.VideoURL},
		SecureKey:  resp.SecureKey,
	}, nil
}

func (r *Resolver) demo() Resolution {
	return Resolution{
		Descriptor: r.policy.DemoDescriptor(),
		SecureKey:  DemoKey,
		Demo:       true,
	}
}
