package httpserver

import (
	"errors"
	"sync"
	"time"

	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// defaultNonceLimit bounds the number of remembered nonces.
const defaultNonceLimit = 100_000

var (
	ErrReplayedNonce  = errors.New("caller nonce already used")
	ErrNonceCacheFull = errors.New("too many outstanding caller nonces")
)

type nonceKey struct {
	caller interfaces.ContractAddress
	nonce  string
}

// nonceGuard remembers accepted (caller, nonce) pairs for as long as the
// signature carrying them could still pass the timestamp check.
type nonceGuard struct {
	mu     sync.Mutex
	seen   map[nonceKey]time.Time
	window time.Duration
	limit  int
	pruned time.Time
}

func newNonceGuard(window time.Duration, limit int) *nonceGuard {
	return &nonceGuard{
		seen:   make(map[nonceKey]time.Time),
		window: window,
		limit:  limit,
	}
}

// use records the pair. It fails if the pair was accepted within the window
// or if the guard is full of unexpired pairs.
func (g *nonceGuard) use(caller interfaces.ContractAddress, nonce string, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.seen) >= g.limit || now.Sub(g.pruned) >= g.window/4 {
		g.prune(now)
	}

	key := nonceKey{caller: caller, nonce: nonce}
	if seenAt, ok := g.seen[key]; ok && now.Sub(seenAt) < g.window {
		return ErrReplayedNonce
	}
	if len(g.seen) >= g.limit {
		return ErrNonceCacheFull
	}

	g.seen[key] = now
	return nil
}

func (g *nonceGuard) prune(now time.Time) {
	for key, seenAt := range g.seen {
		if now.Sub(seenAt) >= g.window {
			delete(g.seen, key)
		}
	}
	g.pruned = now
}

func (g *nonceGuard) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
