// Package ratelimit keeps one token bucket per client and evicts buckets
// that have gone quiet.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines the rate limiting configuration.
type Config struct {
	RPS             float64       // sustained requests per second per client
	Burst           int           // bucket size per client
	CleanupInterval time.Duration // idle buckets older than this are dropped
}

// DefaultConfig is used when nothing is configured.
var DefaultConfig = Config{
	RPS:             50,
	Burst:           100,
	CleanupInterval: time.Hour,
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

// RateLimiter manages one token bucket per client key.
type RateLimiter struct {
	cfg Config

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	stopOnce sync.Once
	stopped  sync.WaitGroup
}

// NewRateLimiter starts a limiter and its eviction goroutine. Call Stop when done.
func NewRateLimiter(cfg Config) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig.CleanupInterval
	}
	rl := &RateLimiter{
		cfg:     cfg,
		buckets: map[string]*bucket{},
		done:    make(chan struct{}),
	}
	rl.stopped.Add(1)
	go rl.evictLoop()
	return rl
}

// Allow reports whether a request from key is within its limit.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.GetLimiter(key).Allow()
}

// GetLimiter returns the bucket for key, creating it on first use.
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.buckets[key] = b
	}
	b.seen = time.Now()
	return b.Limiter
}

// Cleanup drops buckets idle for longer than CleanupInterval.
func (rl *RateLimiter) Cleanup() {
	cutoff := time.Now().Add(-rl.cfg.CleanupInterval)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) evictLoop() {
	defer rl.stopped.Done()

	tick := time.NewTicker(rl.cfg.CleanupInterval)
	defer tick.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-tick.C:
			rl.Cleanup()
		}
	}
}

// Stop ends the eviction goroutine and waits for it. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
	rl.stopped.Wait()
}

// Len returns the number of live buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
