package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// newTestLimiter builds a limiter on a fake clock without the sweeper.
func newTestLimiter(rps float64, burst int, idle time.Duration) (*KeyedLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 8, 17, 9, 0, 0, 0, time.UTC)}
	return &KeyedLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idle,
		now:     clock.Now,
		done:    make(chan struct{}),
	}, clock
}

func TestKeyedLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{"burst allows initial requests", 1, 3, 3, 3},
		{"exceeding burst blocks", 1, 2, 5, 2},
		{"single token", 5, 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kl, _ := newTestLimiter(tt.rps, tt.burst, time.Minute)

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if kl.Allow("10.0.0.1") {
					passed++
				}
			}

			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedLimiter_IndependentKeys(t *testing.T) {
	kl, _ := newTestLimiter(1, 1, time.Minute)

	assert.True(t, kl.Allow("10.0.0.1"))
	assert.False(t, kl.Allow("10.0.0.1"))
	assert.True(t, kl.Allow("10.0.0.2"), "another client has its own bucket")
	assert.Equal(t, 2, kl.Len())
}

func TestKeyedLimiter_Refill(t *testing.T) {
	kl, clock := newTestLimiter(2, 1, time.Minute)

	assert.True(t, kl.Allow("a"))
	assert.False(t, kl.Allow("a"))

	clock.Advance(500 * time.Millisecond)
	assert.True(t, kl.Allow("a"), "one token refills after 1/rps")
}

func TestKeyedLimiter_Sweep(t *testing.T) {
	kl, clock := newTestLimiter(1, 1, time.Minute)

	kl.Allow("stale")
	clock.Advance(45 * time.Second)
	kl.Allow("fresh")
	clock.Advance(30 * time.Second)

	removed := kl.sweep(clock.Now())

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, kl.Len())

	kl.mu.RLock()
	_, ok := kl.entries["fresh"]
	kl.mu.RUnlock()
	assert.True(t, ok)
}

func TestKeyedLimiter_RetryAfter(t *testing.T) {
	tests := []struct {
		rps  float64
		want time.Duration
	}{
		{5, time.Second},
		{1, time.Second},
		{0.25, 4 * time.Second},
		{0, time.Second},
	}

	for _, tt := range tests {
		kl, _ := newTestLimiter(tt.rps, 1, time.Minute)
		assert.Equal(t, tt.want, kl.RetryAfter(), "rps %v", tt.rps)
	}
}

func TestKeyedLimiter_StopIsIdempotent(t *testing.T) {
	kl := New(1, 1, 0)
	assert.Equal(t, DefaultIdleTTL, kl.idleTTL)

	kl.Stop()
	kl.Stop()
}

func TestKeyedLimiter_Concurrent(t *testing.T) {
	kl, _ := newTestLimiter(1, 10, time.Minute)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		passed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if kl.Allow("shared") {
				mu.Lock()
				passed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, passed)
}
