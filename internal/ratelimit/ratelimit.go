// Package ratelimit throttles the unauthenticated endpoints per client
// with a token bucket for each key.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a key may stay silent before its bucket is
// dropped.
const DefaultIdleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter hands every key (a client IP in practice) its own bucket.
// Buckets that go idle are swept so the map does not grow without bound.
type KeyedLimiter struct {
	mu      sync.RWMutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter allowing rps requests per second per key with the
// given burst, and starts the idle sweeper. Call Stop to end it.
func New(rps float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go kl.cleanup()

	return kl
}

// Allow reports whether a request for key may proceed now.
func (kl *KeyedLimiter) Allow(key string) bool {
	now := kl.now()
	return kl.get(key, now).AllowN(now, 1)
}

// RetryAfter is the wait a rejected client is told about, rounded up to
// whole seconds.
func (kl *KeyedLimiter) RetryAfter() time.Duration {
	if kl.limit <= 0 {
		return time.Second
	}
	return time.Duration(math.Ceil(1/float64(kl.limit))) * time.Second
}

// Len returns the number of tracked keys.
func (kl *KeyedLimiter) Len() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

func (kl *KeyedLimiter) get(key string, now time.Time) *rate.Limiter {
	kl.mu.RLock()
	e, ok := kl.entries[key]
	kl.mu.RUnlock()

	if ok {
		kl.mu.Lock()
		e.lastSeen = now
		kl.mu.Unlock()
		return e.limiter
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// Double-check after acquiring write lock
	if e, ok = kl.entries[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	e = &entry{limiter: rate.NewLimiter(kl.limit, kl.burst), lastSeen: now}
	kl.entries[key] = e
	return e.limiter
}

// sweep drops keys not seen since before now minus the idle TTL.
func (kl *KeyedLimiter) sweep(now time.Time) int {
	cutoff := now.Add(-kl.idleTTL)

	kl.mu.Lock()
	defer kl.mu.Unlock()

	removed := 0
	for key, e := range kl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(kl.entries, key)
			removed++
		}
	}
	return removed
}

// Stop shuts down the sweeper.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() {
		close(kl.done)
	})
}

func (kl *KeyedLimiter) cleanup() {
	ticker := time.NewTicker(kl.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-kl.done:
			return
		case <-ticker.C:
			kl.sweep(kl.now())
		}
	}
}
