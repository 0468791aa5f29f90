package service

import (
	"sync"
	"time"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/telemetry/metric"
)

// SessionTable maps auth tokens to sessions.
//
// A single RWMutex guards the map. Lookups run under the read lock; every
// structural change (insert, remove, eviction, sweep) takes the write lock.
// Sliding the expiration during a lookup is safe under the read lock because
// the expiration is atomic.
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	metrics  *metric.Registry
}

// NewSessionTable creates an empty table. metrics may be nil.
func NewSessionTable(metrics *metric.Registry) *SessionTable {
	return &SessionTable{
		sessions: make(map[string]*domain.Session),
		metrics:  metrics,
	}
}

// Insert stores s under its token, replacing any entry with the same token.
func (t *SessionTable) Insert(s *domain.Session) {
	t.mu.Lock()
	t.sessions[s.Token()] = s
	n := len(t.sessions)
	t.mu.Unlock()

	t.setActive(n)
}

// Lookup returns the session for token and touches it, or nil.
//
// A session already past its expiration is removed and nil is returned. The
// read lock is released before the write lock is taken, so the entry is
// re-checked before deletion.
func (t *SessionTable) Lookup(token string, now time.Time) *domain.Session {
	if token == "" {
		return nil
	}

	t.mu.RLock()
	s, ok := t.sessions[token]
	if !ok {
		t.mu.RUnlock()
		return nil
	}
	if !s.Auth().Expired(now) {
		s.Auth().Touch(now)
		t.mu.RUnlock()
		return s
	}
	t.mu.RUnlock()

	t.mu.Lock()
	evicted := false
	if cur, ok := t.sessions[token]; ok && cur == s && cur.Auth().Expired(now) {
		delete(t.sessions, token)
		evicted = true
	}
	n := len(t.sessions)
	t.mu.Unlock()

	if evicted {
		t.setActive(n)
		if t.metrics != nil {
			t.metrics.SessionsExpired.Inc()
		}
	}
	return nil
}

// Remove deletes the entry for token and reports whether it was present.
func (t *SessionTable) Remove(token string) bool {
	t.mu.Lock()
	_, ok := t.sessions[token]
	delete(t.sessions, token)
	n := len(t.sessions)
	t.mu.Unlock()

	if ok {
		t.setActive(n)
	}
	return ok
}

// Sweep removes every session expired at now and returns how many.
func (t *SessionTable) Sweep(now time.Time) int {
	t.mu.Lock()
	removed := 0
	for token, s := range t.sessions {
		if s.Auth().Expired(now) {
			delete(t.sessions, token)
			removed++
		}
	}
	n := len(t.sessions)
	t.mu.Unlock()

	if removed > 0 {
		t.setActive(n)
		if t.metrics != nil {
			t.metrics.SessionsExpired.Add(float64(removed))
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

func (t *SessionTable) setActive(n int) {
	if t.metrics != nil {
		t.metrics.SessionsActive.Set(float64(n))
	}
}
