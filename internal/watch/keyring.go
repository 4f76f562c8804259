package watch

import "sync"

// Keyring holds the single-use secure key slot for a session. Exactly one key
// is valid at any time; a key is consumed once per protocol step and replaced
// by the key the server returns. Protocol steps are serialized by the session,
// but the slot still rejects out-of-order use on its own.
type Keyring struct {
	mu  sync.Mutex
	key string
}

// NewKeyring creates an empty keyring; Install sets the first key at
// resolution time.
func NewKeyring() *Keyring {
	return &Keyring{}
}

// Install replaces the held key unconditionally. Used by resolution, which is
// allowed to repeat; the session keeps only the most recent key.
func (k *Keyring) Install(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = key
}

// Current returns the held key.
func (k *Keyring) Current() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.key
}

// Rotate installs next in place of consumed. If the slot no longer holds
// consumed, another step rotated it first and the call fails with ErrStaleKey.
// On failure the slot is untouched, so a later step still uses the last
// successfully rotated key.
func (k *Keyring) Rotate(consumed, next string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key != consumed {
		return ErrStaleKey
	}
	k.key = next
	return nil
}
