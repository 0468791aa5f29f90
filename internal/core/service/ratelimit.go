package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minPruneSize is the registry size below which inserts never prune.
const minPruneSize = 1024

// RateLimiterRegistry manages one token-bucket limiter per key.
//
// A limiter whose bucket has refilled to the burst is indistinguishable from
// a new one, so it is dropped by Prune and by inserts once the registry has
// doubled since the last prune. Keys that stop sending cost nothing after
// burst/limit seconds.
type RateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
	pruneAt  int
}

// NewRateLimiterRegistry creates a registry whose limiters allow perSecond
// events with the given burst. A non-positive perSecond disables limiting.
// A nil now uses time.Now.
func NewRateLimiterRegistry(perSecond float64, burst int, now func() time.Time) *RateLimiterRegistry {
	if burst < 1 {
		burst = 1
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      now,
		pruneAt:  minPruneSize,
	}
}

// Enabled reports whether the registry limits anything.
func (r *RateLimiterRegistry) Enabled() bool {
	return r != nil && r.limit > 0
}

// Allow consumes one event for key.
func (r *RateLimiterRegistry) Allow(key string) bool {
	if !r.Enabled() {
		return true
	}
	now := r.now()
	return r.getOrCreate(key, now).AllowN(now, 1)
}

// GetOrCreate retrieves an existing rate limiter or creates a new one.
func (r *RateLimiterRegistry) GetOrCreate(key string) *rate.Limiter {
	return r.getOrCreate(key, r.now())
}

func (r *RateLimiterRegistry) getOrCreate(key string, now time.Time) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[key]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := r.limiters[key]; exists {
		return limiter
	}

	if len(r.limiters) >= r.pruneAt {
		r.pruneLocked(now)
		r.pruneAt = max(2*len(r.limiters), minPruneSize)
	}

	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = limiter

	return limiter
}

// Prune drops every limiter that has refilled to its burst at now and
// returns how many were dropped.
func (r *RateLimiterRegistry) Prune(now time.Time) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.pruneLocked(now)
}

func (r *RateLimiterRegistry) pruneLocked(now time.Time) int {
	full := float64(r.burst)
	removed := 0
	for key, limiter := range r.limiters {
		if limiter.TokensAt(now) >= full {
			delete(r.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (r *RateLimiterRegistry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.limiters)
}
