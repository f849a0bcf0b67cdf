// Package session owns one send -> stream -> terminate lifecycle and the
// identity bookkeeping that keeps superseded sessions from writing into the
// timeline.
package session

import "sync"

// Registry issues per-conversation session tokens. Only the most recently
// issued token for a key is live; beginning a new session invalidates the
// previous token immediately, before the old read loop has observed its
// cancellation. Every timeline mutation is gated on the token, which makes
// staleness an explicit check instead of a timing accident.
type Registry struct {
	mu   sync.Mutex
	gens map[string]uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{gens: make(map[string]uint64)}
}

// Begin starts a new session generation for key and returns its token. Any
// previously issued token for the same key goes stale at this moment.
func (r *Registry) Begin(key string) *Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[key]++
	return &Token{registry: r, key: key, gen: r.gens[key]}
}

// Token identifies one session generation for one conversation key.
type Token struct {
	registry *Registry
	key      string
	gen      uint64
}

// Live reports whether this token still identifies the current session.
func (t *Token) Live() bool {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	return t.registry.gens[t.key] == t.gen
}

// Invalidate marks this token's generation stale without starting a
// replacement, and reports whether the token was still live. Invalidation is
// token-scoped: a token that was already superseded does nothing, so
// cancelling an old session can never silence its successor.
func (t *Token) Invalidate() bool {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	if t.registry.gens[t.key] != t.gen {
		return false
	}
	t.registry.gens[t.key]++
	return true
}

// Key returns the conversation key the token was issued for.
func (t *Token) Key() string {
	return t.key
}
