package track

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrStaleKey means the presented secure key does not match the stored one:
// either it was already consumed (a replay) or rotation happened out of order.
var ErrStaleKey = errors.New("stale secure key")

const keyPrefix = "watch:key:"

// rotateScript atomically replaces the stored key only when the presented key
// matches it. Atomicity lives in Redis so multiple API instances are safe.
var rotateScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// consumeScript deletes the stored key only when the presented key matches.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// Keychain is the server-side secure key bookkeeping: exactly one key is
// valid per watch token at any time, each key is usable once, and the chain
// expires with the token TTL. This is the only session state the server
// keeps, which is what makes captured requests worthless after one use.
type Keychain struct {
	client *redis.Client
	ttl    time.Duration
}

// NewKeychain creates a Redis-backed keychain.
func NewKeychain(client *redis.Client, ttl time.Duration) *Keychain {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Keychain{client: client, ttl: ttl}
}

// Issue installs a fresh initial key for a watch token, replacing any
// previous chain. Resolution may repeat (page retry); the latest key wins.
func (k *Keychain) Issue(ctx context.Context, token string) (string, error) {
	key := uuid.New().String()
	if err := k.client.Set(ctx, keyPrefix+token, key, k.ttl).Err(); err != nil {
		return "", fmt.Errorf("issue key: %w", err)
	}
	return key, nil
}

// Rotate consumes the presented key and installs a fresh one, atomically.
// Returns ErrStaleKey when the presented key is not the current one.
func (k *Keychain) Rotate(ctx context.Context, token, presented string) (string, error) {
	next := uuid.New().String()
	ok, err := rotateScript.Run(ctx, k.client,
		[]string{keyPrefix + token}, presented, next, k.ttl.Milliseconds()).Int()
	if err != nil {
		return "", fmt.Errorf("rotate key: %w", err)
	}
	if ok != 1 {
		return "", ErrStaleKey
	}
	return next, nil
}

// Consume validates and retires the presented key without issuing a new one.
// Used by the completion call, the final step of the chain.
func (k *Keychain) Consume(ctx context.Context, token, presented string) error {
	ok, err := consumeScript.Run(ctx, k.client,
		[]string{keyPrefix + token}, presented).Int()
	if err != nil {
		return fmt.Errorf("consume key: %w", err)
	}
	if ok != 1 {
		return ErrStaleKey
	}
	return nil
}
